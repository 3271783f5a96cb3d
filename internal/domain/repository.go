package domain

// TodoStore описывает требования к хранилищу задач.
//
// Все операции тотальны: отсутствие записи выражается флагом ok=false,
// а не ошибкой. Возвращаемые значения — копии, изменять их безопасно.
type TodoStore interface {
	// GetAll возвращает все задачи в порядке добавления.
	GetAll() []TodoItem
	// GetTodo ищет задачу по идентификатору.
	GetTodo(id string) (TodoItem, bool)
	// Add создаёт задачу с очередным идентификатором; completed по умолчанию false.
	Add(title string, order *int, completed *bool) TodoItem
	// UpdateTodo заменяет задачу: title сохраняется, если не передан,
	// order и completed перезаписываются как есть (nil сбрасывает значение).
	UpdateTodo(id string, title *string, order *int, completed *bool) (TodoItem, bool)
	// DeleteTodo удаляет первую задачу с указанным ID; отсутствие — не ошибка.
	DeleteTodo(id string)
	// DeleteAll очищает список, не сбрасывая счётчик идентификаторов.
	DeleteAll()
	// Count возвращает текущее количество задач.
	Count() int
}
