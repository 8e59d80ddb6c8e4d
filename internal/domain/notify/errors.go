package notify

import "errors"

var ErrNoticeNotFound = errors.New("notice not found")
