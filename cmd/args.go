package cmd

import (
	"strconv"

	"github.com/jsphweid/midi2mml/model"
	"github.com/pkg/errors"
)

func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.Wrapf(model.ErrParse, "invalid track index %q", arg)
	}
	return index, nil
}

func parseUint8(arg string) (uint8, error) {
	v, err := strconv.ParseUint(arg, 10, 8)
	if err != nil {
		return 0, errors.Wrapf(model.ErrParse, "invalid number %q", arg)
	}
	return uint8(v), nil
}

func parseBool(arg string) (bool, error) {
	v, err := strconv.ParseBool(arg)
	if err != nil {
		return false, errors.Wrapf(model.ErrParse, "invalid boolean %q", arg)
	}
	return v, nil
}
