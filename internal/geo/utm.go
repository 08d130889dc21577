package geo

import "math"

// GRS80 ellipsoid, used by ETRS89.
const (
	grs80A = 6378137.0
	grs80F = 1 / 298.257222101

	utmK0            = 0.9996
	utmFalseEasting  = 500000.0
	utmZone31Central = 3.0 // degrees east
)

var (
	eSq      = grs80F * (2 - grs80F)
	ePrimeSq = eSq / (1 - eSq)
)

// UTMToLatLng converts ETRS89 / UTM zone 31N (EPSG:25831) easting and
// northing in metres to WGS84 degrees. ETRS89 and WGS84 differ by well under
// a metre, below what a map marker shows.
func UTMToLatLng(easting, northing float64) LatLng {
	x := easting - utmFalseEasting
	m := northing / utmK0

	e4, e6 := eSq*eSq, eSq*eSq*eSq
	mu := m / (grs80A * (1 - eSq/4 - 3*e4/64 - 5*e6/256))

	sq := math.Sqrt(1 - eSq)
	e1 := (1 - sq) / (1 + sq)
	e1sq := e1 * e1

	phi1 := mu +
		(3*e1/2-27*e1*e1sq/32)*math.Sin(2*mu) +
		(21*e1sq/16-55*e1sq*e1sq/32)*math.Sin(4*mu) +
		(151*e1*e1sq/96)*math.Sin(6*mu) +
		(1097*e1sq*e1sq/512)*math.Sin(8*mu)

	sinPhi, cosPhi, tanPhi := math.Sin(phi1), math.Cos(phi1), math.Tan(phi1)
	c1 := ePrimeSq * cosPhi * cosPhi
	t1 := tanPhi * tanPhi
	den := 1 - eSq*sinPhi*sinPhi
	n1 := grs80A / math.Sqrt(den)
	r1 := grs80A * (1 - eSq) / math.Pow(den, 1.5)
	d := x / (n1 * utmK0)
	d2 := d * d

	lat := phi1 - (n1*tanPhi/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*ePrimeSq)*d2*d2/24+
		(61+90*t1+298*c1+45*t1*t1-252*ePrimeSq-3*c1*c1)*d2*d2*d2/720)

	lng := (d -
		(1+2*t1+c1)*d*d2/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ePrimeSq+24*t1*t1)*d*d2*d2/120) / cosPhi

	return LatLng{
		Lat: lat * 180 / math.Pi,
		Lng: utmZone31Central + lng*180/math.Pi,
	}
}

// LatLngToUTM is the forward projection to EPSG:25831.
func LatLngToUTM(p LatLng) (easting, northing float64) {
	lat := p.Lat * math.Pi / 180
	dLng := (p.Lng - utmZone31Central) * math.Pi / 180

	sinLat, cosLat, tanLat := math.Sin(lat), math.Cos(lat), math.Tan(lat)
	n := grs80A / math.Sqrt(1-eSq*sinLat*sinLat)
	t := tanLat * tanLat
	c := ePrimeSq * cosLat * cosLat
	a := cosLat * dLng

	e4, e6 := eSq*eSq, eSq*eSq*eSq
	m := grs80A * ((1-eSq/4-3*e4/64-5*e6/256)*lat -
		(3*eSq/8+3*e4/32+45*e6/1024)*math.Sin(2*lat) +
		(15*e4/256+45*e6/1024)*math.Sin(4*lat) -
		(35*e6/3072)*math.Sin(6*lat))

	a2 := a * a
	easting = utmFalseEasting + utmK0*n*(a+
		(1-t+c)*a*a2/6+
		(5-18*t+t*t+72*c-58*ePrimeSq)*a*a2*a2/120)
	northing = utmK0 * (m + n*tanLat*(a2/2+
		(5-t+9*c+4*c*c)*a2*a2/24+
		(61-58*t+t*t+600*c-330*ePrimeSq)*a2*a2*a2/720))

	return easting, northing
}
