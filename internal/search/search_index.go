// Package search builds a full-text index of the generated pages.
// The serialized form is the one elasticlunr.js loads with Index.load.
package search

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	ElasticlunrVersion   = "0.9.5"
	maxWordLengthToIndex = 80
)

// Fields indexed for every page
const (
	FieldTitle = "title"
	FieldBody  = "body"
)

type termFrequency struct {
	TF float64 `json:"tf"`
}

// node is one character step of a field's token trie
type node struct {
	docs     map[string]termFrequency
	df       int64
	children map[rune]*node
}

func newNode() *node {
	return &node{docs: make(map[string]termFrequency), children: make(map[rune]*node)}
}

// MarshalJSON writes docs and df next to the child characters, the layout
// elasticlunr expects.
func (n *node) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{}, len(n.children)+2)
	data["docs"] = n.docs
	data["df"] = n.df
	for ch, child := range n.children {
		data[string(ch)] = child
	}
	return json.Marshal(data)
}

type fieldIndex struct {
	root *node
}

func (f *fieldIndex) add(ref, token string, tf float64) {
	current := f.root
	for _, ch := range token {
		next, ok := current.children[ch]
		if !ok {
			next = newNode()
			current.children[ch] = next
		}
		current = next
	}
	if _, seen := current.docs[ref]; !seen {
		current.df++
	}
	current.docs[ref] = termFrequency{TF: tf}
}

func (f *fieldIndex) find(token string) *node {
	current := f.root
	for _, ch := range token {
		next, ok := current.children[ch]
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// Page is one generated page offered to the index.
// Ref is the page path relative to the site root.
type Page struct {
	Ref   string
	Title string
	Body  string
}

// Index accumulates pages. It is not safe for concurrent use.
type Index struct {
	fields  []string
	indexes map[string]*fieldIndex
	docs    map[string]map[string]string
	docInfo map[string]map[string]int
}

// NewIndex creates an empty index over the title and body fields
func NewIndex() *Index {
	fields := []string{FieldTitle, FieldBody}
	indexes := make(map[string]*fieldIndex, len(fields))
	for _, f := range fields {
		indexes[f] = &fieldIndex{root: newNode()}
	}
	return &Index{
		fields:  fields,
		indexes: indexes,
		docs:    make(map[string]map[string]string),
		docInfo: make(map[string]map[string]int),
	}
}

// Len returns the number of indexed pages
func (idx *Index) Len() int {
	return len(idx.docs)
}

// Add indexes a page. Adding the same Ref twice replaces the stored document
// but keeps earlier postings.
func (idx *Index) Add(p Page) {
	values := map[string]string{FieldTitle: p.Title, FieldBody: p.Body}
	idx.docs[p.Ref] = map[string]string{"id": p.Ref, FieldTitle: p.Title}
	idx.docInfo[p.Ref] = make(map[string]int, len(idx.fields))

	for _, field := range idx.fields {
		counts := make(map[string]int)
		for _, tok := range analyze(values[field]) {
			counts[tok]++
		}
		idx.docInfo[p.Ref][field] = len(counts)
		for tok, n := range counts {
			idx.indexes[field].add(p.Ref, tok, math.Sqrt(float64(n)))
		}
	}
}

// Lookup returns the pages containing term in field with their term frequency.
// The term goes through the same analysis as indexed text.
func (idx *Index) Lookup(field, term string) map[string]float64 {
	fi, ok := idx.indexes[field]
	if !ok {
		return nil
	}
	toks := analyze(term)
	if len(toks) != 1 {
		return nil
	}
	n := fi.find(toks[0])
	if n == nil || len(n.docs) == 0 {
		return nil
	}
	out := make(map[string]float64, len(n.docs))
	for ref, tf := range n.docs {
		out[ref] = tf.TF
	}
	return out
}

// Refs lists the indexed page paths in order
func (idx *Index) Refs() []string {
	refs := make([]string, 0, len(idx.docs))
	for ref := range idx.docs {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// MarshalJSON serializes the index in elasticlunr's load format
func (idx *Index) MarshalJSON() ([]byte, error) {
	nested := make(map[string]interface{}, len(idx.fields))
	for name, fi := range idx.indexes {
		nested[name] = map[string]interface{}{"root": fi.root}
	}
	return json.Marshal(map[string]interface{}{
		"version":  ElasticlunrVersion,
		"fields":   idx.fields,
		"ref":      "id",
		"lang":     "English",
		"pipeline": []string{"trimmer", "stopWordFilter", "stemmer"},
		"index":    nested,
		"documentStore": map[string]interface{}{
			"save":    true,
			"docs":    idx.docs,
			"docInfo": idx.docInfo,
			"length":  len(idx.docs),
		},
	})
}

// analyze splits text into lowercase words, drops stop words and stems the rest
func analyze(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "’", "'")
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := words[:0]
	for _, w := range words {
		w = strings.TrimSuffix(strings.Trim(w, "'"), "'s")
		if w == "" || len(w) > maxWordLengthToIndex || stopWords[w] {
			continue
		}
		out = append(out, stem(w))
	}
	return out
}

var stopWords = func() map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(`
		a able about across after all almost also am among an and any are as at
		be because been but by can cannot could dear did do does either else ever
		every for from get got had has have he her hers him his how however i if in
		into is it its just least let like likely may me might most must my neither
		no nor not of off often on only or other our own rather said say says she
		should since so some than that the their them then there these they this tis
		to too twas us wants was we were what when where which while who whom why
		will with would yet you your`) {
		m[w] = true
	}
	return m
}()

var (
	pluralSuffixes = []string{"ies", "es", "s"}
	derivSuffixes  = []string{
		"tion", "sion", "ment", "ness", "ful", "less", "ity",
		"ous", "ive", "ent", "ant", "able", "ible", "ence", "ance",
	}
	endingSuffixes = []string{"ly", "er", "est"}
)

// stem strips common English suffixes
func stem(word string) string {
	if len(word) <= 2 {
		return word
	}
	for i, suf := range pluralSuffixes {
		// "ies" keeps three letters, "es" two, "s" one
		if strings.HasSuffix(word, suf) && len(word) > len(suf)+3-i {
			word = word[:len(word)-len(suf)]
			break
		}
	}
	switch {
	case strings.HasSuffix(word, "ed") && len(word) > 4:
		word = word[:len(word)-2]
	case strings.HasSuffix(word, "ing") && len(word) > 5:
		word = word[:len(word)-3]
	}
	word = trimFirst(word, derivSuffixes)
	return trimFirst(word, endingSuffixes)
}

func trimFirst(word string, suffixes []string) string {
	for _, suf := range suffixes {
		if strings.HasSuffix(word, suf) && len(word) > len(suf)+2 {
			return word[:len(word)-len(suf)]
		}
	}
	return word
}
