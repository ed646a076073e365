package plume

import (
	"strings"

	"github.com/feather-lang/plume/core"
)

// ListType is the internal representation for list values.
type ListType []*Obj

func (t ListType) Name() string { return "list" }

func (t ListType) Dup() ObjType {
	dup := make(ListType, len(t))
	copy(dup, t)
	return dup
}

func (t ListType) UpdateString() string {
	var b strings.Builder
	for i, item := range t {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(core.QuoteListElem(item.String()))
	}
	return b.String()
}

func (t ListType) IntoList() ([]*Obj, bool) { return []*Obj(t), true }
