// 文件路径: internal/service/errors.go
// 模块说明: 转换流程对外暴露的错误分类，接口层据此选择 HTTP 状态码。
package service

import "errors"

var (
	// ErrEmptyRequest indicates neither subscription URLs nor a blob were given.
	ErrEmptyRequest = errors.New("service: empty request / 未提供订阅")
	// ErrSubscriptionFetch indicates a subscription URL could not be fetched.
	ErrSubscriptionFetch = errors.New("service: subscription fetch failed / 获取订阅失败")
	// ErrSubscriptionDecode indicates subscription content was not base64 or a link list.
	ErrSubscriptionDecode = errors.New("service: subscription decode failed / 订阅解析失败")
	// ErrTimeout indicates the conversion ran past its deadline. Callers may retry.
	ErrTimeout = errors.New("service: conversion timed out / 转换超时")
)
