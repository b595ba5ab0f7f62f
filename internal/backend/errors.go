package backend

import (
	"fmt"
	"net/http"
	"time"
)

// Error Нормализованная ошибка бэкенда. Транспортный сбой и
// структурированный ответ с ошибкой приводятся к одной форме: вызывающий
// код видит готовое к показу сообщение и, при наличии, HTTP-статус.
type Error struct {
	Message    string
	StatusCode int // 0 для транспортных сбоев
}

func (e *Error) Error() string {
	return e.Message
}

// NotFound Бэкенд не знает такой сущности (лид, ошибка).
func (e *Error) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ThrottleError Бэкенд попросил сбавить темп. RetryAfter считывается из
// заголовка Retry-After и подсказывает ретраям, сколько ждать.
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      *Error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error {
	return e.Cause
}
