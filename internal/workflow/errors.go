// Package workflow 申请人生命周期与维修工单的状态机。
// Reducer 都是纯函数：不修改入参，非法动作返回错误且状态不变。
package workflow

import "errors"

var (
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrScreeningInProgress = errors.New("screening already running")
	ErrOperationInProgress = errors.New("lease operation already in progress")
	ErrLeaseLocked         = errors.New("lease is locked")
	ErrNoApplication       = errors.New("application data not present")
	ErrEmptyAssignee       = errors.New("assignee is required")
	ErrNotAssigned         = errors.New("ticket is not assigned")
	ErrEmptyMessage        = errors.New("message is required")
	ErrInvalidAuthor       = errors.New("invalid author")
	ErrInvalidStatus       = errors.New("invalid ticket status")
	ErrAttachmentTooEarly  = errors.New("attachments require a resolved or closed ticket")
	ErrEmptyAttachment     = errors.New("attachment name and url are required")
	ErrUnknownAction       = errors.New("unknown action")
)
