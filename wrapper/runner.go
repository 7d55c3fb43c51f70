package main

import (
	"bytes"
	"os/exec"

	log "github.com/sirupsen/logrus"
)

/**
helper function to run the given command and capture output
*/
func RunCommand(cmd *exec.Cmd) ([]byte, []byte, error) {
	log.Debug("exec command is ", cmd)
	var outContent bytes.Buffer
	var errContent bytes.Buffer
	cmd.Stdout = &outContent
	cmd.Stderr = &errContent

	completeErr := cmd.Run()
	if completeErr != nil {
		exitErr, isExitError := completeErr.(*exec.ExitError)
		if isExitError {
			log.Print("Failure code: ", exitErr)
			log.Printf("Subprocess exited with an error: \n%s", errContent.String())
		} else {
			log.Print("Could not run subprocess: ", completeErr)
		}
		return outContent.Bytes(), errContent.Bytes(), completeErr
	}

	return outContent.Bytes(), errContent.Bytes(), nil
}
