package gacha

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"beast-summon-backend/internal/models"
)

// Catalog is the immutable set of summonable beast templates. The ordered id
// list is the selection order for the derived beast index.
type Catalog struct {
	order []uint32
	byID  map[uint32]models.BeastTemplate
}

// NewCatalog builds a catalog from parallel lists of template ids, element
// codes, and image references. Template id 0 and element code 0 are reserved
// sentinels and rejected.
func NewCatalog(ids []uint32, elements []uint8, images []string) (*Catalog, error) {
	if len(ids) != len(elements) || len(ids) != len(images) {
		return nil, fmt.Errorf("%w: ids=%d elements=%d images=%d",
			ErrLengthMismatch, len(ids), len(elements), len(images))
	}
	if len(ids) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		order: make([]uint32, 0, len(ids)),
		byID:  make(map[uint32]models.BeastTemplate, len(ids)),
	}
	for i, id := range ids {
		if id == 0 || elements[i] == 0 {
			return nil, fmt.Errorf("%w: entry %d", ErrZeroValue, i)
		}
		elem := models.Element(elements[i])
		if !elem.Valid() {
			return nil, fmt.Errorf("%w: entry %d has element code %d", ErrOutOfBound, i, elements[i])
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("catalog: duplicate template id %d", id)
		}
		c.byID[id] = models.BeastTemplate{
			TemplateID: id,
			Element:    elem,
			ImageURI:   images[i],
		}
		c.order = append(c.order, id)
	}
	return c, nil
}

func (c *Catalog) Size() int {
	return len(c.order)
}

// At returns the template at the given selection index.
func (c *Catalog) At(i int) models.BeastTemplate {
	return c.byID[c.order[i]]
}

func (c *Catalog) Lookup(id uint32) (models.BeastTemplate, bool) {
	t, ok := c.byID[id]
	return t, ok
}

func (c *Catalog) Templates() []models.BeastTemplate {
	out := make([]models.BeastTemplate, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

type catalogFile struct {
	Templates struct {
		IDs      []uint32 `yaml:"ids"`
		Elements []uint8  `yaml:"elements"`
		Images   []string `yaml:"images"`
	} `yaml:"templates"`
}

// LoadCatalog reads the yaml seed file and validates it into a Catalog.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return NewCatalog(f.Templates.IDs, f.Templates.Elements, f.Templates.Images)
}
