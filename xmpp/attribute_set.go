/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

// Attribute represents an XML node attribute (label=value).
type Attribute struct {
	Label string
	Value string
}

// AttributeSet is the read-only view of an element's attributes.
type AttributeSet interface {
	// Get returns the value of the attribute named label, or an empty string.
	Get(label string) string

	// Has reports whether an attribute named label is present.
	Has(label string) bool

	// All returns attributes in document order.
	All() []Attribute

	Count() int
}

type attributeSet []Attribute

func (as attributeSet) Get(label string) string {
	if i := as.index(label); i >= 0 {
		return as[i].Value
	}
	return ""
}

func (as attributeSet) Has(label string) bool {
	return as.index(label) >= 0
}

func (as attributeSet) All() []Attribute {
	ret := make([]Attribute, len(as))
	copy(ret, as)
	return ret
}

func (as attributeSet) Count() int {
	return len(as)
}

func (as attributeSet) index(label string) int {
	for i, attr := range as {
		if attr.Label == label {
			return i
		}
	}
	return -1
}

func (as *attributeSet) set(label, value string) {
	if i := as.index(label); i >= 0 {
		(*as)[i].Value = value
		return
	}
	*as = append(*as, Attribute{Label: label, Value: value})
}

func (as *attributeSet) remove(label string) {
	if i := as.index(label); i >= 0 {
		*as = append((*as)[:i], (*as)[i+1:]...)
	}
}
