package plume

import (
	"strings"

	"github.com/feather-lang/plume/core"
)

// DictType is the internal representation for dictionary values.
type DictType struct {
	Items map[string]*Obj
	Order []string
}

func (t *DictType) Name() string { return "dict" }

func (t *DictType) Dup() ObjType {
	newItems := make(map[string]*Obj, len(t.Items))
	for k, v := range t.Items {
		newItems[k] = v
	}
	newOrder := make([]string, len(t.Order))
	copy(newOrder, t.Order)
	return &DictType{Items: newItems, Order: newOrder}
}

func (t *DictType) UpdateString() string {
	var b strings.Builder
	for i, key := range t.Order {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(core.QuoteListElem(key))
		b.WriteByte(' ')
		b.WriteString(core.QuoteListElem(t.Items[key].String()))
	}
	return b.String()
}

// Set stores a key, preserving first-insertion order.
func (t *DictType) Set(key string, val *Obj) {
	if _, exists := t.Items[key]; !exists {
		t.Order = append(t.Order, key)
	}
	t.Items[key] = val
}

// Unset removes a key and reports whether it existed.
func (t *DictType) Unset(key string) bool {
	if _, exists := t.Items[key]; !exists {
		return false
	}
	delete(t.Items, key)
	for i, k := range t.Order {
		if k == key {
			t.Order = append(t.Order[:i], t.Order[i+1:]...)
			break
		}
	}
	return true
}

func (t *DictType) IntoDict() (map[string]*Obj, []string, bool) {
	return t.Items, t.Order, true
}

func (t *DictType) IntoList() ([]*Obj, bool) {
	list := make([]*Obj, 0, len(t.Order)*2)
	var interp *Interp
	for _, v := range t.Items {
		if v != nil && v.interp != nil {
			interp = v.interp
			break
		}
	}
	for _, k := range t.Order {
		list = append(list, &Obj{bytes: k, interp: interp}, t.Items[k])
	}
	return list, true
}
