package store

import (
	"math"

	"world-api/internal/place"
)

const earthRadiusKm = 6371.0

// 文档注释：KD-Tree 最近邻（二维经纬）
// 约束：按经度/纬度交替分割；只回答最近一个点；构建后只读
type kdNode struct {
	v  place.Vertex
	ax int // 0:lon,1:lat
	l  *kdNode
	r  *kdNode
}

func buildKD(vs []place.Vertex, depth int) *kdNode {
	if len(vs) == 0 {
		return nil
	}
	ax := depth % 2
	mid := len(vs) / 2
	selectNth(vs, mid, ax)
	node := &kdNode{v: vs[mid], ax: ax}
	node.l = buildKD(vs[:mid], depth+1)
	node.r = buildKD(vs[mid+1:], depth+1)
	return node
}

// 原地 nth 元素选择
func selectNth(a []place.Vertex, n int, ax int) {
	lo, hi := 0, len(a)-1
	for lo < hi {
		p := partition(a, lo, hi, (lo+hi)/2, ax)
		if p == n {
			return
		}
		if n < p {
			hi = p - 1
		} else {
			lo = p + 1
		}
	}
}

func partition(a []place.Vertex, lo, hi, pivot, ax int) int {
	pv := a[pivot]
	a[pivot], a[hi] = a[hi], a[pivot]
	i := lo
	for j := lo; j < hi; j++ {
		if axisValue(a[j], ax) < axisValue(pv, ax) {
			a[i], a[j] = a[j], a[i]
			i++
		}
	}
	a[i], a[hi] = a[hi], a[i]
	return i
}

func axisValue(v place.Vertex, ax int) float64 {
	if ax == 0 {
		return v.Geolocation.Longitude
	}
	return v.Geolocation.Latitude
}

// nearest：返回最近顶点与距离（千米）；树为空时 ok=false
func nearest(node *kdNode, lat, lon float64) (best place.Vertex, bestD float64, ok bool) {
	bestD = math.MaxFloat64
	var dfs func(n *kdNode)
	dfs = func(n *kdNode) {
		if n == nil {
			return
		}
		d := haversine(lat, lon, n.v.Geolocation.Latitude, n.v.Geolocation.Longitude)
		if d < bestD {
			bestD, best, ok = d, n.v, true
		}
		key, q := lat, n.v.Geolocation.Latitude
		if n.ax == 0 {
			key, q = lon, n.v.Geolocation.Longitude
		}
		first, second := n.l, n.r
		if key >= q {
			first, second = n.r, n.l
		}
		dfs(first)
		if splitBoundKm(lat, lon, q, n.ax) < bestD {
			dfs(second)
		}
	}
	dfs(node)
	return best, bestD, ok
}

// splitBoundKm：查询点到分割另一侧任意点距离的下界（千米）
// 约束：经度侧的区域由分割经线与 ±180° 经线围成，取两者距离的较小值
func splitBoundKm(lat, lon, q float64, ax int) float64 {
	if ax == 1 {
		return math.Abs(lat-q) * 111.0
	}
	return math.Min(meridianKm(lat, lon, q), meridianKm(lat, lon, 180))
}

// meridianKm：点到经线（南北极之间的半个大圆）的球面距离
func meridianKm(lat, lon, meridian float64) float64 {
	d := math.Mod(math.Abs(lon-meridian), 360)
	if d > 180 {
		d = 360 - d
	}
	phi := math.Abs(lat) * math.Pi / 180
	if d >= 90 {
		return earthRadiusKm * (math.Pi/2 - phi)
	}
	return earthRadiusKm * math.Asin(math.Sin(d*math.Pi/180)*math.Cos(phi))
}

// 球面距离（Haversine），返回千米
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// DistanceKm：两点球面距离
func DistanceKm(a, b place.Geolocation) float64 {
	return haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
