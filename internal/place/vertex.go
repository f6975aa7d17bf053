package place

// Geolocation：WGS84 坐标
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Vertex：地名顶点
// 约束：创建后不可变；AlternateNames 始终包含 Name
type Vertex struct {
	Level          Level       `json:"level"`
	GeonameID      string      `json:"geonameId"`
	Name           string      `json:"name"`
	AlternateNames []string    `json:"alternateNames"`
	Geolocation    Geolocation `json:"geolocation"`
	Population     int64       `json:"population"`
}

// NewVertex：按名称回退规则构造顶点
// 约束：name 为空时取第一个别名；name 不在别名中时追加到末尾；两者皆空时保持空名
func NewVertex(level Level, key, name string, alternates []string, loc Geolocation, population int64) Vertex {
	names := make([]string, 0, len(alternates)+1)
	for _, a := range alternates {
		if a != "" {
			names = append(names, a)
		}
	}
	if name == "" && len(names) > 0 {
		name = names[0]
	}
	if name != "" && !contains(names, name) {
		names = append(names, name)
	}
	if population < 0 {
		population = 0
	}
	return Vertex{
		Level:          level,
		GeonameID:      key,
		Name:           name,
		AlternateNames: names,
		Geolocation:    loc,
		Population:     population,
	}
}

// Root：根顶点
func Root() Vertex {
	return Vertex{
		Level:          World,
		GeonameID:      RootKey,
		Name:           "World",
		AlternateNames: []string{"World", "world"},
		Geolocation:    Geolocation{Latitude: 0, Longitude: 0},
		Population:     7500000000,
	}
}

// Ref：顶点在图中的定位（层级 + 键）
type Ref struct {
	Level Level  `json:"level"`
	Key   string `json:"geonameId"`
}

func (v Vertex) Ref() Ref { return Ref{Level: v.Level, Key: v.GeonameID} }

func (r Ref) String() string { return string(r.Level) + ":" + r.Key }

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
