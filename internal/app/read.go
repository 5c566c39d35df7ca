package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// Bodies larger than this are rejected rather than buffered.
const maxBodyBytes = 8 << 20

type StatusError struct {
	Code int
	Url  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status code %d from %s", e.Code, e.Url)
}

func Read(reader io.ReadCloser) ([]byte, error) {
	var err error

	defer func() {
		err = reader.Close()
		if err != nil {
			slog.Error(fmt.Sprintf("Error occured: %s", err.Error()))
		}
	}()

	var content []byte
	content, err = io.ReadAll(io.LimitReader(reader, maxBodyBytes+1))

	if err != nil {
		return nil, err
	} else if len(content) > maxBodyBytes {
		return nil, fmt.Errorf("reader content exceeds %d bytes", maxBodyBytes)
	}

	return content, nil
}

func ReadJSON[T any](content []byte) (*T, error) {
	var t *T
	err := json.Unmarshal(content, &t)

	if err != nil {
		return nil, err
	}

	return t, nil
}
