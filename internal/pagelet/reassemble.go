package pagelet

import (
	"github.com/hyperifyio/snapstrip/internal/markup"
)

// Result is the outcome of Reassemble.
type Result struct {
	Document string
	// IDs lists the identifiers of every payload with an id, in document
	// order.
	IDs []string
	// Subtrees holds the markup moved into each payload, aligned with IDs.
	// An entry is empty when no element carried the id.
	Subtrees []string
}

type payload struct {
	el  markup.Element
	rec *Record
}

func payloads(doc string) []payload {
	var out []payload
	for _, el := range markup.RawElements(doc, "script") {
		rec, err := Parse(el.Content(doc))
		if err != nil {
			continue
		}
		out = append(out, payload{el: el, rec: rec})
	}
	return out
}

// arena holds the subtrees excised so far, indexed by discovery order.
type arena struct {
	nodes []string
}

func (a *arena) add(node string) { a.nodes = append(a.nodes, node) }

// take looks for anchor inside the pending subtrees, oldest first. The first
// hit is split: its nested content is returned and the pending subtree keeps
// the residue.
func (a *arena) take(anchor string) (string, bool) {
	for i, n := range a.nodes {
		ex := markup.Extract(n, anchor)
		if ex.Found && ex.Subtree != "" {
			a.nodes[i] = ex.Document
			return ex.Subtree, true
		}
	}
	return "", false
}

// Reassemble moves the markup of every pagelet out of the page body and into
// the content field of its payload script. Payloads are processed in
// document order against the shrinking document; a pagelet nested in one
// already moved is found in the pending subtrees. Each payload is then
// rewritten with its present, non-excluded fields in canonical order.
// Scripts without an id are left as they are.
func Reassemble(doc string, excluded FieldSet) Result {
	res := Result{Document: doc}
	found := payloads(doc)
	if len(found) == 0 {
		return res
	}

	cur := doc
	var pending arena
	for _, p := range found {
		id := p.rec.ID()
		if id == "" {
			continue
		}
		ex := markup.Extract(cur, id)
		node := ex.Subtree
		if ex.Found {
			cur = ex.Document
		}
		if node == "" {
			node, _ = pending.take(id)
		}
		pending.add(node)
		res.IDs = append(res.IDs, id)
	}
	res.Subtrees = pending.nodes

	// payload scripts moved along with a subtree are no longer in cur and
	// stay as they were inside it
	queue := map[string][]int{}
	for i, id := range res.IDs {
		queue[id] = append(queue[id], i)
	}
	var edits []markup.Edit
	for _, p := range payloads(cur) {
		id := p.rec.ID()
		q := queue[id]
		if id == "" || len(q) == 0 {
			continue
		}
		queue[id] = q[1:]
		p.rec.SetContent(pending.nodes[q[0]])
		edits = append(edits, markup.Edit{Start: p.el.ContentStart, End: p.el.ContentEnd, Text: p.rec.Serialize(excluded)})
	}
	res.Document = markup.Apply(cur, edits)
	return res
}
