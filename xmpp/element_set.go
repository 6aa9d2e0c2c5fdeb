/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

// ElementSet is the read-only view of an element's children.
type ElementSet interface {
	// Children returns all child elements named name.
	Children(name string) []XElement

	// Child returns the first child element named name, or nil.
	Child(name string) XElement

	// ChildrenNamespace returns all children matching name and namespace.
	ChildrenNamespace(name, namespace string) []XElement

	// ChildNamespace returns the first child matching name and namespace, or nil.
	ChildNamespace(name, namespace string) XElement

	// All returns every child in document order.
	All() []XElement

	Count() int
}

type elementSet []XElement

func byName(name string) func(XElement) bool {
	return func(e XElement) bool { return e.Name() == name }
}

func byNameNamespace(name, namespace string) func(XElement) bool {
	return func(e XElement) bool { return e.Name() == name && e.Namespace() == namespace }
}

func (es elementSet) Children(name string) []XElement {
	return es.filter(byName(name))
}

func (es elementSet) Child(name string) XElement {
	return es.first(byName(name))
}

func (es elementSet) ChildrenNamespace(name string, namespace string) []XElement {
	return es.filter(byNameNamespace(name, namespace))
}

func (es elementSet) ChildNamespace(name string, namespace string) XElement {
	return es.first(byNameNamespace(name, namespace))
}

func (es elementSet) All() []XElement {
	ret := make([]XElement, len(es))
	copy(ret, es)
	return ret
}

func (es elementSet) Count() int { return len(es) }

func (es elementSet) first(match func(XElement) bool) XElement {
	for _, node := range es {
		if match(node) {
			return node
		}
	}
	return nil
}

// filter returns a new set holding the nodes matched by keep.
// A nil set is returned when nothing matches.
func (es elementSet) filter(keep func(XElement) bool) elementSet {
	var filtered elementSet
	for _, node := range es {
		if keep(node) {
			filtered = append(filtered, node)
		}
	}
	return filtered
}
