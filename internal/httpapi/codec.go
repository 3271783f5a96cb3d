package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/todo/internal/domain"
)

const (
	// EnvBaseURL задаёт внешний адрес сервиса для поля url.
	EnvBaseURL = "TODO_BASE_URL"
	// DefaultBaseURL используется, если EnvBaseURL не задан.
	DefaultBaseURL = "http://localhost:8080"

	maxBodyBytes = 1 << 20
)

// BaseURLFromEnv читает базовый адрес из окружения при каждом вызове.
func BaseURLFromEnv() string {
	v := strings.TrimSpace(os.Getenv(EnvBaseURL))
	if v == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(v, "/")
}

// Optional различает отсутствие поля в JSON и его значение.
// Set — ключ присутствовал; Valid — значение есть и имеет нужный тип.
// null и значение другого типа дают Set=true, Valid=false.
type Optional[T any] struct {
	Value T
	Set   bool
	Valid bool
}

// UnmarshalJSON не возвращает ошибку на несовпадение типа: поле просто считается пустым.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var v T
	if p, ok := any(&v).(*int); ok {
		n, ok := wholeNumber(data)
		if !ok {
			return nil
		}
		*p = n
	} else if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	o.Value = v
	o.Valid = true
	return nil
}

// wholeNumber принимает JSON-число с целым значением в любой записи (7, 7.0, 1e2).
// Строки и дробные значения не принимаются.
func wholeNumber(data []byte) (int, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' {
		return 0, false
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return 0, false
	}
	if n, err := strconv.ParseInt(num.String(), 10, strconv.IntSize); err == nil {
		return int(n), true
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// Ptr возвращает указатель на значение или nil.
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// todoRequest — тело POST/PUT/PATCH.
type todoRequest struct {
	Title     Optional[string] `json:"title"`
	Order     Optional[int]    `json:"order"`
	Completed Optional[bool]   `json:"completed"`
}

// todoResponse — JSON-представление задачи.
type todoResponse struct {
	ID        string `json:"id"`
	Order     *int   `json:"order"`
	Completed *bool  `json:"completed"`
	Title     string `json:"title"`
	URL       string `json:"url"`
}

// decodeTodoRequest читает тело запроса как JSON-объект.
func decodeTodoRequest(w http.ResponseWriter, r *http.Request) (todoRequest, error) {
	var req todoRequest
	if r.Body == nil {
		return req, domain.ErrBodyRequired
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return req, fmt.Errorf("read body: %w", domain.ErrInvalidJSON)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return req, domain.ErrBodyRequired
	}
	if data[0] != '{' {
		return req, domain.ErrInvalidJSON
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("decode body: %v: %w", err, domain.ErrInvalidJSON)
	}
	return req, nil
}

// renderTodo строит ответ; baseURL вызывается на каждый элемент.
func renderTodo(item domain.TodoItem, baseURL func() string) todoResponse {
	item = item.Clone()
	return todoResponse{
		ID:        item.ID,
		Order:     item.Order,
		Completed: item.Completed,
		Title:     item.Title,
		URL:       baseURL() + "/api/todos/" + item.ID,
	}
}

func renderTodos(items []domain.TodoItem, baseURL func() string) []todoResponse {
	out := make([]todoResponse, 0, len(items))
	for _, item := range items {
		out = append(out, renderTodo(item, baseURL))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
