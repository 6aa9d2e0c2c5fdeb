/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

// ElementBuilder assembles an Element.
//
// Build transfers ownership of the assembled tree to the caller and
// leaves the builder empty, so an Element handed out is never touched
// by the builder again.
type ElementBuilder struct {
	e *Element
}

// NewElementBuilder returns a builder for an element named name.
func NewElementBuilder(name string) *ElementBuilder {
	return &ElementBuilder{e: &Element{name: name}}
}

// NewElementBuilderNamespace returns a builder for an element named name within namespace.
func NewElementBuilderNamespace(name, namespace string) *ElementBuilder {
	return &ElementBuilder{e: NewElementNamespace(name, namespace)}
}

// NewElementBuilderFromElement returns a builder initialized with a copy of elem.
func NewElementBuilderFromElement(elem XElement) *ElementBuilder {
	return &ElementBuilder{e: NewElementFromElement(elem)}
}

func (b *ElementBuilder) element() *Element {
	if b.e == nil {
		b.e = &Element{}
	}
	return b.e
}

// WithName sets the element name.
func (b *ElementBuilder) WithName(name string) *ElementBuilder {
	b.element().name = name
	return b
}

// WithText sets the element character data.
func (b *ElementBuilder) WithText(text string) *ElementBuilder {
	b.element().text = text
	return b
}

// WithAttribute sets an attribute value, replacing any previous one.
// An empty value removes the attribute.
func (b *ElementBuilder) WithAttribute(label, value string) *ElementBuilder {
	e := b.element()
	if len(value) == 0 {
		e.attrs.remove(label)
		return b
	}
	e.attrs.set(label, value)
	return b
}

// WithNamespace sets the 'xmlns' attribute.
func (b *ElementBuilder) WithNamespace(namespace string) *ElementBuilder {
	return b.WithAttribute("xmlns", namespace)
}

// WithID sets the 'id' attribute.
func (b *ElementBuilder) WithID(id string) *ElementBuilder {
	return b.WithAttribute("id", id)
}

// WithType sets the 'type' attribute.
func (b *ElementBuilder) WithType(tp string) *ElementBuilder {
	return b.WithAttribute("type", tp)
}

// WithFrom sets the 'from' attribute.
func (b *ElementBuilder) WithFrom(from string) *ElementBuilder {
	return b.WithAttribute("from", from)
}

// WithTo sets the 'to' attribute.
func (b *ElementBuilder) WithTo(to string) *ElementBuilder {
	return b.WithAttribute("to", to)
}

// AppendElement appends a child element.
func (b *ElementBuilder) AppendElement(elem XElement) *ElementBuilder {
	if elem == nil {
		return b
	}
	e := b.element()
	e.elements = append(e.elements, elem)
	return b
}

// AppendElements appends a list of child elements.
func (b *ElementBuilder) AppendElements(elems []XElement) *ElementBuilder {
	for _, elem := range elems {
		b.AppendElement(elem)
	}
	return b
}

// RemoveElements removes every child named name.
func (b *ElementBuilder) RemoveElements(name string) *ElementBuilder {
	e := b.element()
	e.elements = e.elements.filter(func(el XElement) bool { return el.Name() != name })
	return b
}

// RemoveElementsNamespace removes every child matching name and namespace.
func (b *ElementBuilder) RemoveElementsNamespace(name, namespace string) *ElementBuilder {
	e := b.element()
	e.elements = e.elements.filter(func(el XElement) bool {
		return el.Name() != name || el.Namespace() != namespace
	})
	return b
}

// ClearElements removes all children.
func (b *ElementBuilder) ClearElements() *ElementBuilder {
	b.element().elements = nil
	return b
}

// Build returns the assembled element and resets the builder.
func (b *ElementBuilder) Build() *Element {
	e := b.element()
	b.e = nil
	return e
}
