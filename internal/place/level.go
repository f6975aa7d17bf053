// 包 place：地名图谱的核心数据模型（层级、顶点）与规范键推导
package place

import "fmt"

// Level：行政层级，每个层级对应存储中的一个独立分区
// 约束：world 为根（最粗），adm5 为最细；严格全序，顺序见 Levels
type Level string

const (
	World     Level = "world"
	Countries Level = "countries"
	Adm1      Level = "adm1"
	Adm2      Level = "adm2"
	Adm3      Level = "adm3"
	Adm4      Level = "adm4"
	Adm5      Level = "adm5"
)

// Levels：由粗到细的全部层级
var Levels = []Level{World, Countries, Adm1, Adm2, Adm3, Adm4, Adm5}

// SpatialLevels：参与坐标近邻查询的层级，由细到粗；countries 与 world 不做空间索引
var SpatialLevels = []Level{Adm5, Adm4, Adm3, Adm2, Adm1}

// RootKey：根顶点的 geonameId
const RootKey = "world"

var parentOf = map[Level]Level{
	Countries: World,
	Adm1:      Countries,
	Adm2:      Adm1,
	Adm3:      Adm2,
	Adm4:      Adm3,
	Adm5:      Adm4,
}

// Parent：返回上一级层级；world 没有上级
func (l Level) Parent() (Level, bool) {
	p, ok := parentOf[l]
	return p, ok
}

// Rank：层级序号，world=0，adm5=6；未知层级返回 -1
func (l Level) Rank() int {
	for i, v := range Levels {
		if v == l {
			return i
		}
	}
	return -1
}

func (l Level) Valid() bool { return l.Rank() >= 0 }

func (l Level) String() string { return string(l) }

// ParseLevel：解析外部输入的层级名
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}
