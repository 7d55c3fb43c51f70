package models

import (
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
)

/**
convenience function to perform a mapstructure decode using the customised decode hook below,
to handle timestamp strings and numeric identifiers
*/
func CustomisedMapStructureDecode(incoming interface{}, outgoing interface{}) error {
	decoder, setupErr := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructureDecodeHook,
		Result:     outgoing,
	})
	if setupErr != nil {
		return setupErr
	}
	return decoder.Decode(incoming)
}

/**
this custom decode hook will perform a couple of extra conversions:
- if the input type is string and the output is time, then it will attempt to parse the time as an RFC 3339 timestamp
and send the error back up the chain if it can't.
- if the input is a json number and the output is string, the number is formatted without an exponent. Some transcoders
hand back numeric job ids
*/
func mapstructureDecodeHook(inType reflect.Type, outType reflect.Type, value interface{}) (interface{}, error) {
	if inType == reflect.TypeOf("") && outType == reflect.TypeOf(time.Time{}) {
		timeval, timeerr := time.Parse(time.RFC3339, value.(string))
		if timeerr != nil {
			return nil, timeerr
		} else {
			return timeval, nil
		}
	} else if inType == reflect.TypeOf(float64(0)) && outType == reflect.TypeOf("") {
		return strconv.FormatFloat(value.(float64), 'f', -1, 64), nil
	} else {
		return value, nil
	}
}
