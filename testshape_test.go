package engine

// mapShape is a minimal Shape implementation backed by a plain map, used
// across this package's tests as a stand-in for generated shape code
// (spec §1 treats generated shapes as out of scope). It is the single
// hand-written Shape implementation shared by every test in this package.
type mapShape struct {
	header  map[string]string
	query   map[string]string
	path    map[string]string
	payload string
	hasPL   bool
	members []Member
	values  map[string]any
}

func newMapShape() *mapShape {
	return &mapShape{
		header: map[string]string{},
		query:  map[string]string{},
		path:   map[string]string{},
		values: map[string]any{},
	}
}

func (s *mapShape) HeaderParams() map[string]string { return s.header }
func (s *mapShape) QueryParams() map[string]string  { return s.query }
func (s *mapShape) PathParams() map[string]string   { return s.path }
func (s *mapShape) PayloadPath() (string, bool)     { return s.payload, s.hasPL }
func (s *mapShape) Members() []Member               { return s.members }

func (s *mapShape) Field(fieldName string) (any, bool) {
	v, ok := s.values[fieldName]
	return v, ok
}

func (s *mapShape) SetField(fieldName string, value any) error {
	s.values[fieldName] = value
	return nil
}

func (s *mapShape) withPayload(fieldName string) *mapShape {
	s.payload = fieldName
	s.hasPL = true
	return s
}

func (s *mapShape) withMember(m Member) *mapShape {
	s.members = append(s.members, m)
	return s
}

func (s *mapShape) set(fieldName string, value any) *mapShape {
	s.values[fieldName] = value
	return s
}
