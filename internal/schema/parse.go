package schema

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// paramSpec mirrors one parameter entry as written in the document.
type paramSpec struct {
	Type       string     `yaml:"type"`
	Default    *yaml.Node `yaml:"default"`
	Range      []int64    `yaml:"range"`
	EnumValues []string   `yaml:"enum_values"`
	MaxLength  int        `yaml:"max_length"`
	Key        string     `yaml:"nvs_key"`
	GUI        guiSpec    `yaml:"gui"`
}

type guiSpec struct {
	LabelShort    map[string]string `yaml:"label_short"`
	LabelLong     map[string]string `yaml:"label_long"`
	Description   map[string]string `yaml:"description"`
	Category      string            `yaml:"category"`
	Priority      int               `yaml:"priority"`
	Advanced      bool              `yaml:"advanced"`
	Widget        string            `yaml:"widget"`
	RuntimeChange string            `yaml:"runtime_change"`
}

// Load reads and parses a schema document from disk. A nil logger is
// replaced with a no-op logger.
func Load(path string, log Logger) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return Parse(data, log)
}

// Parse parses and validates a schema document. Both version layouts
// normalise into the same flat Model; see the package documentation.
func Parse(data []byte, log Logger) (*Model, error) {
	if log == nil {
		log = noopLogger{}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrBadDocument)
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrBadDocument)
	}

	m := &Model{Version: 1}

	if n := mapValue(doc, "version"); n != nil {
		if err := n.Decode(&m.Version); err != nil {
			return nil, fmt.Errorf("%w: version: %v", ErrBadDocument, err)
		}
	}

	switch m.Version {
	case 1:
		params := mapValue(doc, "parameters")
		if params == nil {
			return nil, pathErr("parameters", ErrMissingField)
		}
		if err := parseParams(m, params, "", ""); err != nil {
			return nil, err
		}
	case 2:
		fams := mapValue(doc, "families")
		if fams == nil {
			return nil, pathErr("families", ErrMissingField)
		}
		if err := parseFamilies(m, fams, log); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version)
	}

	if n := mapValue(doc, "presets"); n != nil {
		spec, err := parsePresets(n)
		if err != nil {
			return nil, err
		}
		m.Presets = spec
	}

	if err := checkDuplicates(m); err != nil {
		return nil, err
	}
	return m, nil
}

// familyBuild pairs a family with its parameters so families can be
// reordered by their declared order before flattening.
type familyBuild struct {
	fam    Family
	params []Parameter
}

func parseFamilies(m *Model, fams *yaml.Node, log Logger) error {
	if fams.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: families is not a mapping", ErrBadDocument)
	}

	var builds []familyBuild
	for i := 0; i < len(fams.Content)-1; i += 2 {
		name := fams.Content[i].Value
		node := fams.Content[i+1]
		fb, err := parseFamily(name, node, log)
		if err != nil {
			return err
		}
		builds = append(builds, fb)
	}

	sort.SliceStable(builds, func(a, b int) bool {
		return builds[a].fam.Order < builds[b].fam.Order
	})

	for _, fb := range builds {
		m.Families = append(m.Families, fb.fam)
		m.Parameters = append(m.Parameters, fb.params...)
	}
	return nil
}

func parseFamily(name string, node *yaml.Node, log Logger) (familyBuild, error) {
	fb := familyBuild{fam: Family{Name: name}}
	if node.Kind != yaml.MappingNode {
		return fb, pathErrf(name, ErrBadDocument, "family is not a mapping")
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		var err error
		switch key {
		case "order":
			err = val.Decode(&fb.fam.Order)
		case "icon":
			err = val.Decode(&fb.fam.Icon)
		case "label":
			err = val.Decode(&fb.fam.Label)
		case "description":
			err = val.Decode(&fb.fam.Description)
		case "aliases":
			err = val.Decode(&fb.fam.Aliases)
		case "parameters":
			for j := 0; j < len(val.Content)-1; j += 2 {
				p, perr := parseParameter(val.Content[j].Value, name, "", val.Content[j+1])
				if perr != nil {
					return fb, perr
				}
				fb.params = append(fb.params, p)
			}
		case "subfamilies":
			for j := 0; j < len(val.Content)-1; j += 2 {
				subName := val.Content[j].Value
				subNode := val.Content[j+1]
				sub, params, serr := parseSubfamily(name, subName, subNode, log)
				if serr != nil {
					return fb, serr
				}
				fb.fam.Subfamilies = append(fb.fam.Subfamilies, sub)
				fb.params = append(fb.params, params...)
			}
		}
		if err != nil {
			return fb, pathErrf(name, ErrBadDocument, "%s: %v", key, err)
		}
	}
	return fb, nil
}

func parseSubfamily(family, name string, node *yaml.Node, log Logger) (Subfamily, []Parameter, error) {
	sub := Subfamily{Name: name}
	if node.Kind != yaml.MappingNode {
		return sub, nil, pathErrf(family+"."+name, ErrBadDocument, "subfamily is not a mapping")
	}

	if n := mapValue(node, "is_composite"); n != nil {
		if err := n.Decode(&sub.IsComposite); err != nil {
			return sub, nil, pathErrf(family+"."+name, ErrBadDocument, "is_composite: %v", err)
		}
	}
	if sub.IsComposite {
		// Composite subfamilies are managed outside the parameter
		// model; skip their contents entirely.
		log.Warn("skipping composite subfamily",
			"family", family,
			"subfamily", name)
		return sub, nil, nil
	}

	var params []Parameter
	if pn := mapValue(node, "parameters"); pn != nil {
		for j := 0; j < len(pn.Content)-1; j += 2 {
			p, err := parseParameter(pn.Content[j].Value, family, name, pn.Content[j+1])
			if err != nil {
				return sub, nil, err
			}
			params = append(params, p)
		}
	}
	return sub, params, nil
}

func parseParams(m *Model, node *yaml.Node, family, subfamily string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: parameters is not a mapping", ErrBadDocument)
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		p, err := parseParameter(node.Content[i].Value, family, subfamily, node.Content[i+1])
		if err != nil {
			return err
		}
		m.Parameters = append(m.Parameters, p)
	}
	return nil
}

func parsePresets(node *yaml.Node) (*PresetSpec, error) {
	spec := &PresetSpec{}
	if n := mapValue(node, "count"); n != nil {
		if err := n.Decode(&spec.Count); err != nil {
			return nil, fmt.Errorf("%w: presets count: %v", ErrBadDocument, err)
		}
	}
	if spec.Count <= 0 {
		return nil, pathErrf("presets", ErrBadDocument, "count must be positive")
	}

	tpl := mapValue(node, "template")
	if tpl == nil {
		return nil, pathErr("presets.template", ErrMissingField)
	}
	for i := 0; i < len(tpl.Content)-1; i += 2 {
		p, err := buildParameter(tpl.Content[i].Value, "", "", tpl.Content[i+1], true)
		if err != nil {
			return nil, err
		}
		spec.Template = append(spec.Template, p)
	}
	if len(spec.Template) == 0 {
		return nil, pathErr("presets.template", ErrMissingField)
	}
	return spec, nil
}

func parseParameter(name, family, subfamily string, node *yaml.Node) (Parameter, error) {
	return buildParameter(name, family, subfamily, node, false)
}

func buildParameter(name, family, subfamily string, node *yaml.Node, allowPercent bool) (Parameter, error) {
	p := Parameter{
		Name:      name,
		Family:    family,
		Subfamily: subfamily,
		FullPath:  joinPath(family, subfamily, name),
	}

	var spec paramSpec
	if err := node.Decode(&spec); err != nil {
		return p, pathErrf(p.FullPath, ErrBadDocument, "%v", err)
	}

	if spec.Type == "" {
		return p, pathErrf(p.FullPath, ErrMissingField, "type")
	}
	p.Type = Type(spec.Type)
	switch p.Type {
	case TypeU8, TypeU16, TypeU32, TypeBool, TypeEnum, TypeString:
	case TypePercent:
		if !allowPercent {
			return p, pathErrf(p.FullPath, ErrUnknownType, "%q is only valid in preset templates", spec.Type)
		}
	default:
		return p, pathErrf(p.FullPath, ErrUnknownType, "%q", spec.Type)
	}

	if spec.Default == nil {
		return p, pathErrf(p.FullPath, ErrMissingField, "default")
	}

	p.Key = spec.Key
	p.EnumValues = spec.EnumValues
	p.MaxLength = spec.MaxLength
	p.GUI = GUI{
		LabelShort:  spec.GUI.LabelShort,
		LabelLong:   spec.GUI.LabelLong,
		Description: spec.GUI.Description,
		Category:    spec.GUI.Category,
		Priority:    spec.GUI.Priority,
		Advanced:    spec.GUI.Advanced,
		Widget:      Widget(spec.GUI.Widget),
		Change:      ChangeMode(spec.GUI.RuntimeChange),
	}
	if p.GUI.Change == "" {
		p.GUI.Change = ChangeImmediate
	}

	if err := applyRange(&p, spec.Range); err != nil {
		return p, err
	}
	if err := applyDefault(&p, spec.Default); err != nil {
		return p, err
	}
	return p, nil
}

func applyRange(p *Parameter, r []int64) error {
	switch len(r) {
	case 0:
		if p.Type.Numeric() {
			p.Min, p.Max = 0, p.Type.MaxValue()
		}
		return nil
	case 2:
	default:
		return pathErrf(p.FullPath, ErrBadRange, "expected [min, max]")
	}

	if !p.Type.Numeric() && p.Type != TypePercent {
		return pathErrf(p.FullPath, ErrBadRange, "range not valid for type %s", p.Type)
	}
	lo, hi := r[0], r[1]
	if lo < 0 || hi < lo {
		return pathErrf(p.FullPath, ErrBadRange, "[%d, %d]", lo, hi)
	}
	if p.Type.Numeric() && uint64(hi) > uint64(p.Type.MaxValue()) {
		return pathErrf(p.FullPath, ErrBadRange, "max %d exceeds %s width", hi, p.Type)
	}
	p.HasRange = true
	p.Min, p.Max = uint32(lo), uint32(hi)
	return nil
}

func applyDefault(p *Parameter, def *yaml.Node) error {
	switch p.Type {
	case TypeU8, TypeU16, TypeU32:
		var v int64
		if err := def.Decode(&v); err != nil {
			return pathErrf(p.FullPath, ErrBadDocument, "default: %v", err)
		}
		if v < 0 || uint64(v) > uint64(p.Type.MaxValue()) {
			return pathErrf(p.FullPath, ErrDefaultOutOfRange, "%d exceeds %s width", v, p.Type)
		}
		if p.HasRange && (uint32(v) < p.Min || uint32(v) > p.Max) {
			return pathErrf(p.FullPath, ErrDefaultOutOfRange, "%d outside [%d, %d]", v, p.Min, p.Max)
		}
		p.DefaultUint = uint32(v)

	case TypeBool:
		if err := def.Decode(&p.DefaultBool); err != nil {
			return pathErrf(p.FullPath, ErrBadDocument, "default: %v", err)
		}

	case TypeEnum:
		if len(p.EnumValues) == 0 {
			return pathErr(p.FullPath, ErrMissingEnumValues)
		}
		if err := def.Decode(&p.DefaultEnum); err != nil {
			return pathErrf(p.FullPath, ErrBadDocument, "default: %v", err)
		}
		if !contains(p.EnumValues, p.DefaultEnum) {
			return pathErrf(p.FullPath, ErrDefaultNotMember, "%q", p.DefaultEnum)
		}

	case TypeString:
		if p.MaxLength <= 0 {
			return pathErrf(p.FullPath, ErrMissingField, "max_length")
		}
		if err := def.Decode(&p.DefaultString); err != nil {
			return pathErrf(p.FullPath, ErrBadDocument, "default: %v", err)
		}
		if len(p.DefaultString) > p.MaxLength {
			return pathErrf(p.FullPath, ErrDefaultTooLong, "%d > %d", len(p.DefaultString), p.MaxLength)
		}

	case TypePercent:
		if err := def.Decode(&p.DefaultFloat); err != nil {
			return pathErrf(p.FullPath, ErrBadDocument, "default: %v", err)
		}
		if p.HasRange && (p.DefaultFloat < float32(p.Min) || p.DefaultFloat > float32(p.Max)) {
			return pathErrf(p.FullPath, ErrDefaultOutOfRange, "%g outside [%d, %d]", p.DefaultFloat, p.Min, p.Max)
		}
	}
	return nil
}

func checkDuplicates(m *Model) error {
	seen := make(map[string]struct{}, len(m.Parameters))
	for i := range m.Parameters {
		path := m.Parameters[i].FullPath
		if _, dup := seen[path]; dup {
			return pathErr(path, ErrDuplicatePath)
		}
		seen[path] = struct{}{}
	}
	return nil
}

func joinPath(family, subfamily, name string) string {
	switch {
	case family == "":
		return name
	case subfamily == "":
		return family + "." + name
	default:
		return family + "." + subfamily + "." + name
	}
}

func contains(vals []string, s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}
	return false
}

// mapValue returns the value node for key within a mapping node, or nil.
func mapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
