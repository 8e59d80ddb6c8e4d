package org

import "errors"

var ErrEmployeeNotFound = errors.New("employee not found")
