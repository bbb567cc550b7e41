package detection

// Catalog maps model identifiers to artifact locations. It is immutable once
// built.
type Catalog struct {
	paths map[string]string
	order []string
}

// NewCatalog builds a catalog listing ids in order. Ids missing from paths
// are skipped; ids in paths but not in order are appended in no fixed order.
func NewCatalog(paths map[string]string, order []string) *Catalog {
	c := &Catalog{paths: make(map[string]string, len(paths))}
	for _, id := range order {
		path, ok := paths[id]
		if !ok {
			continue
		}
		if _, dup := c.paths[id]; dup {
			continue
		}
		c.paths[id] = path
		c.order = append(c.order, id)
	}
	for id, path := range paths {
		if _, seen := c.paths[id]; !seen {
			c.paths[id] = path
			c.order = append(c.order, id)
		}
	}
	return c
}

// Lookup returns the artifact path for id
func (c *Catalog) Lookup(id string) (string, bool) {
	if c == nil {
		return "", false
	}
	path, ok := c.paths[id]
	return path, ok
}

// IDs lists model identifiers in catalog order
func (c *Catalog) IDs() []string {
	if c == nil {
		return []string{}
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
