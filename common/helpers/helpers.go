package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"

	log "github.com/sirupsen/logrus"
)

type GenericErrorResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

func WriteJsonContent(content interface{}, w http.ResponseWriter, statusCode int) {
	contentBytes, marshalErr := json.Marshal(content)
	if marshalErr != nil {
		log.Printf("Could not marshal content for json write: %s", marshalErr)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.Header().Add("Content-Length", strconv.FormatInt(int64(len(contentBytes)), 10))
	w.WriteHeader(statusCode)
	_, writeErr := w.Write(contentBytes)
	if writeErr != nil {
		log.Printf("Could not write content to HTTP socket: %s", writeErr)
	}
}

func ReadJsonBody(from io.Reader, to interface{}) error {
	byteContent, readErr := ioutil.ReadAll(from)
	if readErr != nil {
		return readErr
	}

	return json.Unmarshal(byteContent, to)
}

/**
Breaks down the incoming request URI into a map of string->string
*/
func GetQueryParams(incomingRequestUri string) (*url.Values, error) {
	requestUri, uriParseErr := url.ParseRequestURI(incomingRequestUri)

	if uriParseErr != nil {
		log.Printf("Could not understand incoming request URI '%s': %s", incomingRequestUri, uriParseErr)
		return nil, errors.New("Invalid URI")
	}

	rtn := requestUri.Query()
	return &rtn, nil
}

/**
parses a positive numeric record id. If it is not valid, a GenericErrorResponse object is returned that is
suitable to be written directly to the outgoing response.
*/
func ParseVideoId(idString string) (int64, *GenericErrorResponse) {
	videoId, parseErr := strconv.ParseInt(idString, 10, 64)
	if parseErr != nil || videoId <= 0 {
		log.Printf("Could not parse video ID string '%s' into a number: %v", idString, parseErr)
		return 0, &GenericErrorResponse{
			Status: "error",
			Detail: "malformed video id",
		}
	}
	return videoId, nil
}

/**
gets an optional non-negative integer parameter from the query string, returning `defaultValue` if it is not present.
*/
func GetIntParam(queryParams *url.Values, name string, defaultValue int) (int, *GenericErrorResponse) {
	rawValue := queryParams.Get(name)
	if rawValue == "" {
		return defaultValue, nil
	}
	value, parseErr := strconv.Atoi(rawValue)
	if parseErr != nil || value < 0 {
		return 0, &GenericErrorResponse{
			Status: "error",
			Detail: name + " must be a non-negative number",
		}
	}
	return value, nil
}
