package place

import (
	"errors"
	"strings"
)

// ErrNotOfInterest：要素代码不在分派表中，记录被丢弃（高频且正常）
var ErrNotOfInterest = errors.New("feature not of interest")

// FeatureCode：GeoNames 要素代码
type FeatureCode string

const (
	FeatADM1  FeatureCode = "ADM1"
	FeatADM2  FeatureCode = "ADM2"
	FeatADM3  FeatureCode = "ADM3"
	FeatADM4  FeatureCode = "ADM4"
	FeatADM5  FeatureCode = "ADM5"
	FeatADMD  FeatureCode = "ADMD"
	FeatPCL   FeatureCode = "PCL"
	FeatPCLD  FeatureCode = "PCLD"
	FeatPCLF  FeatureCode = "PCLF"
	FeatPCLI  FeatureCode = "PCLI"
	FeatPCLIX FeatureCode = "PCLIX"
	FeatPCLS  FeatureCode = "PCLS"
	FeatTERR  FeatureCode = "TERR"
)

// 仅这些属地在数据集中拥有下级记录，其余 TERR 丢弃
var parentingTerritories = map[string]bool{
	"AS": true, // American Samoa
	"EH": true, // Western Sahara
	"SJ": true, // Svalbard
}

// Codes：键推导所需的原始记录字段
type Codes struct {
	FeatureCode  FeatureCode
	CountryCode  string
	Admin        [4]string // admin1..admin4
	RawID        string
	AltCountries []string // cc2
}

// ParentSpec：父顶点的查找条件
type ParentSpec struct {
	Level        Level
	Key          string
	AltCountries []string
}

// Derivation：推导结果
type Derivation struct {
	Level  Level
	Key    string
	Parent ParentSpec
}

// Derive：将原始记录映射为（层级，规范键，父查找条件）
// 约束：对要素代码全域确定且完全；同一地点的两条记录必然得到相同的键
func Derive(c Codes) (Derivation, error) {
	var d Derivation
	switch c.FeatureCode {
	case FeatADM1, FeatADM2, FeatADM3, FeatADM4:
		n := int(c.FeatureCode[3] - '0')
		d.Level = admLevel(n)
		d.Key = joinKey(c.CountryCode, c.Admin[:n]...)
	case FeatADM5:
		d.Level = Adm5
		d.Key = joinKey(c.CountryCode, append(c.Admin[:4:4], c.RawID)...)
	case FeatADMD:
		n := deepestAdmin(c.Admin)
		d.Level = admLevel(n + 1)
		d.Key = joinKey(c.CountryCode, append(c.Admin[:n:n], c.RawID)...)
	case FeatPCL, FeatPCLD, FeatPCLF, FeatPCLI, FeatPCLIX, FeatPCLS:
		d.Level = Countries
		d.Key = c.CountryCode
	case FeatTERR:
		if !parentingTerritories[c.CountryCode] {
			return Derivation{}, ErrNotOfInterest
		}
		d.Level = Countries
		d.Key = c.CountryCode
	default:
		return Derivation{}, ErrNotOfInterest
	}
	d.Parent = parentSpec(d.Level, c)
	return d, nil
}

// Interesting：快速判定要素代码是否会被 Derive 接受（TERR 需结合国家代码，见 Derive）
func Interesting(code FeatureCode) bool {
	switch code {
	case FeatADM1, FeatADM2, FeatADM3, FeatADM4, FeatADM5, FeatADMD,
		FeatPCL, FeatPCLD, FeatPCLF, FeatPCLI, FeatPCLIX, FeatPCLS, FeatTERR:
		return true
	}
	return false
}

// 父查找条件来自记录自身的行政代码，而非由子键截断
func parentSpec(l Level, c Codes) ParentSpec {
	switch l {
	case Countries:
		return ParentSpec{Level: World, Key: RootKey}
	case Adm1:
		return ParentSpec{Level: Countries, Key: c.CountryCode, AltCountries: c.AltCountries}
	}
	n := l.Rank() - Adm1.Rank()
	p, _ := l.Parent()
	return ParentSpec{Level: p, Key: joinKey(c.CountryCode, c.Admin[:n]...), AltCountries: c.AltCountries}
}

// deepestAdmin：自 admin4 向 admin1 探测，返回最深的非空且非 "0" 代码的层数；全无返回 0
func deepestAdmin(admin [4]string) int {
	for i := 3; i >= 0; i-- {
		if admin[i] != "" && admin[i] != "0" {
			return i + 1
		}
	}
	return 0
}

func admLevel(n int) Level {
	return Levels[Adm1.Rank()+n-1]
}

func joinKey(cc string, segs ...string) string {
	if len(segs) == 0 {
		return cc
	}
	return cc + "/" + strings.Join(segs, "/")
}

// TrimKey：去掉键的最后一段；无可去除时返回 false
func TrimKey(key string) (string, bool) {
	i := strings.LastIndexByte(key, '/')
	if i < 0 {
		return "", false
	}
	return key[:i], true
}
