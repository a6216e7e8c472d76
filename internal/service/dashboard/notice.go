// internal/service/dashboard/notice.go

package dashboard

import "fmt"

// NoticeLevel is the severity of a user-visible message
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a message shown alongside a result. External failures become
// notices rather than failed responses.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

func info(format string, args ...interface{}) Notice {
	return Notice{Level: NoticeInfo, Message: fmt.Sprintf(format, args...)}
}

func warning(format string, args ...interface{}) Notice {
	return Notice{Level: NoticeWarning, Message: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...interface{}) Notice {
	return Notice{Level: NoticeError, Message: fmt.Sprintf(format, args...)}
}
