// Package apperr 定义 check-in 流程对外暴露的错误分类。
//
// 所有错误都是 kratos *errors.Error，按 Reason 区分：
//   - VALIDATION: 本地校验失败，没有发起任何网络请求
//   - TRANSPORT:  网络错误或非 2xx 响应
//   - PARSE:      响应状态成功但 body 无法解析
package apperr

import (
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
)

const (
	ReasonValidation = "VALIDATION"
	ReasonTransport  = "TRANSPORT"
	ReasonParse      = "PARSE"
)

// 展示给用户的文案
const (
	MsgAnswerRequired        = "at least one answer required"
	MsgSubmitFailed          = "Failed to connect to the server. Please ensure the backend is running."
	MsgRecommendationsFailed = "Failed to get recommendations from the server."
)

// Validation 本地校验错误
func Validation(message string) *errors.Error {
	return errors.BadRequest(ReasonValidation, message)
}

// Transport 网络/状态码错误，cause 保留原始错误
func Transport(message string, cause error) *errors.Error {
	e := errors.ServiceUnavailable(ReasonTransport, message)
	if cause != nil {
		e = e.WithCause(cause)
	}
	return e
}

// Parse 响应解析错误
func Parse(message string, cause error) *errors.Error {
	e := errors.New(http.StatusBadGateway, ReasonParse, message)
	if cause != nil {
		e = e.WithCause(cause)
	}
	return e
}

func IsValidation(err error) bool { return err != nil && errors.Reason(err) == ReasonValidation }
func IsTransport(err error) bool  { return err != nil && errors.Reason(err) == ReasonTransport }
func IsParse(err error) bool      { return err != nil && errors.Reason(err) == ReasonParse }

// SubmitMessage 把提交阶段的错误映射为用户可读文案。
// TRANSPORT 与 PARSE 对用户来说是同一类问题。
func SubmitMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsValidation(err) {
		return errors.FromError(err).Message
	}
	return MsgSubmitFailed
}

// RecommendationMessage 把推荐阶段的错误映射为用户可读文案
func RecommendationMessage(err error) string {
	if err == nil {
		return ""
	}
	return MsgRecommendationsFailed
}
