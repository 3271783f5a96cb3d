package domain

// TodoItem — одна запись списка дел.
//
// Order и Completed опциональны: nil означает, что значение не задано
// клиентом (или было сброшено обновлением).
type TodoItem struct {
	// ID присваивается хранилищем и не меняется после создания.
	ID string
	// Title — непустой текст задачи.
	Title string
	// Order — подсказка клиента для сортировки.
	Order *int
	// Completed — признак выполнения.
	Completed *bool
}

// Clone возвращает копию элемента, не разделяющую указатели с оригиналом.
func (t TodoItem) Clone() TodoItem {
	out := TodoItem{ID: t.ID, Title: t.Title}
	if t.Order != nil {
		v := *t.Order
		out.Order = &v
	}
	if t.Completed != nil {
		v := *t.Completed
		out.Completed = &v
	}
	return out
}

// IsCompleted возвращает значение Completed, считая nil за false.
func (t TodoItem) IsCompleted() bool {
	return t.Completed != nil && *t.Completed
}
