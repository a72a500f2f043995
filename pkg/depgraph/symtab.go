package depgraph

// SymbolTable interns module names to dense int IDs so the graph can store
// adjacency as int slices instead of string maps.
type SymbolTable struct {
	strToID map[string]int
	idToStr []string
}

// NewSymbolTable creates an empty SymbolTable.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		strToID: make(map[string]int),
	}
}

// Intern returns the ID for name, assigning the next free ID on first use.
func (t *SymbolTable) Intern(name string) int {
	if id, ok := t.strToID[name]; ok {
		return id
	}

	id := len(t.idToStr)
	t.strToID[name] = id
	t.idToStr = append(t.idToStr, name)

	return id
}

// ID returns the ID for name without interning it.
func (t *SymbolTable) ID(name string) (int, bool) {
	id, ok := t.strToID[name]

	return id, ok
}

// NameOf resolves an ID back to its name.
func (t *SymbolTable) NameOf(id int) string {
	if id < 0 || id >= len(t.idToStr) {
		return ""
	}

	return t.idToStr[id]
}

// Len returns the number of interned names.
func (t *SymbolTable) Len() int {
	return len(t.idToStr)
}
