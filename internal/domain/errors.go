package domain

import "errors"

var (
	// ErrBodyRequired — в запросе нет тела.
	ErrBodyRequired = errors.New("request body is required")
	// ErrInvalidJSON — тело запроса не является JSON-объектом.
	ErrInvalidJSON = errors.New("request body is not a valid json object")
	// ErrTitleRequired — при создании не передано поле title.
	ErrTitleRequired = errors.New("title is required")
	// ErrIDRequired — в пути запроса нет идентификатора.
	ErrIDRequired = errors.New("id is required")
	// ErrTodoNotFound возвращается, если задача с таким ID отсутствует.
	ErrTodoNotFound = errors.New("todo not found")
	// ErrPublisherClosed — попытка публикации после закрытия паблишера.
	ErrPublisherClosed = errors.New("event publisher is closed")
)

// IsBadRequest сообщает, относится ли ошибка к некорректному запросу клиента.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBodyRequired) ||
		errors.Is(err, ErrInvalidJSON) ||
		errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrIDRequired)
}
