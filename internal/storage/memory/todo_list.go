package memory

import (
	"strconv"
	"sync"

	"github.com/vladislavdragonenkov/todo/internal/domain"
)

// todoListInMemory — упорядоченный список задач со счётчиком идентификаторов.
// Один мьютекс защищает и список, и счётчик.
type todoListInMemory struct {
	mu      sync.RWMutex
	items   []domain.TodoItem
	counter int
}

// NewTodoList возвращает пустое in-memory хранилище задач.
func NewTodoList() domain.TodoStore {
	return &todoListInMemory{
		items: make([]domain.TodoItem, 0),
	}
}

// GetAll возвращает копии всех задач в порядке добавления.
func (l *todoListInMemory) GetAll() []domain.TodoItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.TodoItem, 0, len(l.items))
	for _, item := range l.items {
		result = append(result, item.Clone())
	}
	return result
}

// GetTodo ищет первую задачу с совпадающим ID.
func (l *todoListInMemory) GetTodo(id string) (domain.TodoItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return domain.TodoItem{}, false
	}
	return l.items[idx].Clone(), true
}

// Add добавляет задачу в конец списка.
func (l *todoListInMemory) Add(title string, order *int, completed *bool) domain.TodoItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	if completed == nil {
		completed = new(bool)
	}
	item := domain.TodoItem{
		ID:        strconv.Itoa(l.counter),
		Title:     title,
		Order:     order,
		Completed: completed,
	}.Clone()
	l.counter++
	l.items = append(l.items, item)
	return item.Clone()
}

// UpdateTodo заменяет задачу на месте. Title сохраняется при nil,
// order и completed берутся как есть.
func (l *todoListInMemory) UpdateTodo(id string, title *string, order *int, completed *bool) (domain.TodoItem, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return domain.TodoItem{}, false
	}

	newTitle := l.items[idx].Title
	if title != nil {
		newTitle = *title
	}
	item := domain.TodoItem{
		ID:        id,
		Title:     newTitle,
		Order:     order,
		Completed: completed,
	}.Clone()
	l.items[idx] = item
	return item.Clone(), true
}

// DeleteTodo удаляет первую задачу с указанным ID.
func (l *todoListInMemory) DeleteTodo(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
}

// DeleteAll очищает список; counter не сбрасывается.
func (l *todoListInMemory) DeleteAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = make([]domain.TodoItem, 0)
}

// Count возвращает количество задач.
func (l *todoListInMemory) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.items)
}

// indexOf вызывается под блокировкой.
func (l *todoListInMemory) indexOf(id string) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

var _ domain.TodoStore = (*todoListInMemory)(nil)
