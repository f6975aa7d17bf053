// 包 ipgeo：基于 MaxMind GeoIP2 City 数据库的 IP → 坐标映射
package ipgeo

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

var (
	ErrInvalidIP = errors.New("invalid ip")
	ErrUnknownIP = errors.New("ip not in database")
)

// Point：IP 定位结果
type Point struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyKm     uint16  `json:"accuracyKm"`
	CountryISOCode string  `json:"country,omitempty"`
}

// Reader：GeoIP2 City 读取器；并发安全
type Reader struct {
	db *geoip2.Reader
}

// Open：打开 mmdb 文件（GeoIP2-City / GeoLite2-City）
func Open(path string) (*Reader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db %s: %w", path, err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

// Lookup：解析 IP 文本并返回坐标
// 异常：文本非法返回 ErrInvalidIP；库中无坐标返回 ErrUnknownIP
func (r *Reader) Lookup(ip string) (Point, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}
	rec, err := r.db.City(addr)
	if err != nil {
		return Point{}, fmt.Errorf("geoip lookup %s: %w", ip, err)
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 && rec.Country.GeoNameID == 0 {
		return Point{}, fmt.Errorf("%w: %s", ErrUnknownIP, ip)
	}
	return Point{
		Latitude:       rec.Location.Latitude,
		Longitude:      rec.Location.Longitude,
		AccuracyKm:     rec.Location.AccuracyRadius,
		CountryISOCode: rec.Country.IsoCode,
	}, nil
}
