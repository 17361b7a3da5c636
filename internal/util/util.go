/*
Package util includes utility/helper functions that may be useful to other modules.
*/
package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ExpandUser expands '~' to user's home directory, if found, otherwise returns original path
func ExpandUser(path string) string {
	usr, err := user.Current()
	if err != nil {
		return path
	}
	if path == "~" {
		return usr.HomeDir
	} else if strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return filepath.Join(usr.HomeDir, path[2:])
	} else {
		return path
	}
}

// AbsPath returns absolute path after expanding '~' to user's home dir
// Use everywhere in place of filepath.Abs()
func AbsPath(path string) (string, error) {
	return filepath.Abs(ExpandUser(path))
}

// FileExists checks if a file exists at the given path.
// It returns a boolean indicating whether the file exists, and an error if the
// path refers to a non-regular file, e.g., a directory.
func FileExists(path string) (exists bool, err error) {
	var fileInfo fs.FileInfo
	fileInfo, err = os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			exists = false
			err = nil
			return
		}
		return
	}
	if !fileInfo.Mode().IsRegular() {
		err = fmt.Errorf("%s not a file", path)
		return
	}
	exists = true
	return
}

// OpenInput opens the named file for reading, or returns standard input when
// path is empty. Closing the returned reader never closes standard input.
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	absPath, err := AbsPath(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to expand input path %s", path)
	}
	f, err := os.Open(absPath) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "failed to open input")
	}
	return f, nil
}

// WriteOutput writes content to the named file, or to standard output when
// path is empty.
func WriteOutput(path string, content []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(content)
		return errors.Wrap(err, "failed to write output")
	}
	absPath, err := AbsPath(path)
	if err != nil {
		return errors.Wrapf(err, "failed to expand output path %s", path)
	}
	err = os.WriteFile(absPath, content, 0644) // #nosec G306
	return errors.Wrapf(err, "failed to write %s", absPath)
}
