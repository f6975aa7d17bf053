// 包 gazetteer：GeoNames 制表符分隔数据的记录解析与有序读取
package gazetteer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"world-api/internal/place"
)

// FieldCount：每行固定字段数
const FieldCount = 19

// ErrMalformed：字段数不符或数值字段无法解析
var ErrMalformed = errors.New("malformed record")

// Record：一行 GeoNames 记录
//
//	0 geonameid, 1 name, 2 asciiname, 3 alternatenames, 4 latitude, 5 longitude,
//	6 feature class, 7 feature code, 8 country code, 9 cc2, 10-13 admin1..4,
//	14 population, 15 elevation, 16 dem, 17 timezone, 18 modification date
type Record struct {
	ID             string
	Name           string
	ASCIIName      string
	AlternateNames []string
	Latitude       float64
	Longitude      float64
	FeatureClass   string
	FeatureCode    string
	CountryCode    string
	CC2            []string
	Admin          [4]string
	Population     int64
	Elevation      string
	DEM            string
	Timezone       string
	Modified       string
}

// ParseLine：解析单行
// 约束：仅 latitude/longitude/population 做数值校验；population 为空视为 0；elevation/dem 原样保留
func ParseLine(line string) (Record, error) {
	f := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(f) != FieldCount {
		return Record{}, fmt.Errorf("%w: %d fields", ErrMalformed, len(f))
	}
	lat, err := strconv.ParseFloat(f[4], 64)
	if err != nil || lat < -90 || lat > 90 {
		return Record{}, fmt.Errorf("%w: latitude %q", ErrMalformed, f[4])
	}
	lon, err := strconv.ParseFloat(f[5], 64)
	if err != nil || lon < -180 || lon > 180 {
		return Record{}, fmt.Errorf("%w: longitude %q", ErrMalformed, f[5])
	}
	var pop int64
	if f[14] != "" {
		pop, err = strconv.ParseInt(f[14], 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("%w: population %q", ErrMalformed, f[14])
		}
	}
	return Record{
		ID:             f[0],
		Name:           f[1],
		ASCIIName:      f[2],
		AlternateNames: splitList(f[3]),
		Latitude:       lat,
		Longitude:      lon,
		FeatureClass:   f[6],
		FeatureCode:    f[7],
		CountryCode:    f[8],
		CC2:            splitList(f[9]),
		Admin:          [4]string{f[10], f[11], f[12], f[13]},
		Population:     pop,
		Elevation:      f[15],
		DEM:            f[16],
		Timezone:       f[17],
		Modified:       f[18],
	}, nil
}

// Codes：提取键推导所需字段
func (r Record) Codes() place.Codes {
	return place.Codes{
		FeatureCode:  place.FeatureCode(r.FeatureCode),
		CountryCode:  r.CountryCode,
		Admin:        r.Admin,
		RawID:        r.ID,
		AltCountries: r.CC2,
	}
}

// Vertex：按推导出的层级与键构造顶点
func (r Record) Vertex(level place.Level, key string) place.Vertex {
	return place.NewVertex(level, key, r.Name, r.AlternateNames,
		place.Geolocation{Latitude: r.Latitude, Longitude: r.Longitude}, r.Population)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
