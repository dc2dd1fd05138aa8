package blurhash

import "math"

var toLinear = makeToLinear()

func makeToLinear() *[256]float64 {
	t := new([256]float64)
	for i := range t {
		v := float64(i) / 255
		if v <= 0.04045 {
			t[i] = v / 12.92
		} else {
			t[i] = math.Pow((v+0.055)/1.055, 2.4)
		}
	}
	return t
}

func sRGBToLinear(v uint8) float64 {
	return toLinear[v]
}

func linearToSRGB(value float64) uint8 {
	v := math.Max(0, math.Min(1, value))
	if v <= 0.0031308 {
		return uint8(v*12.92*255 + 0.5)
	}
	return uint8((1.055*math.Pow(v, 1/2.4)-0.055)*255 + 0.5)
}

// signedPow2 squares x keeping its sign
func signedPow2(x float64) float64 {
	return math.Copysign(x*x, x)
}

func signedSqrt(x float64) float64 {
	return math.Copysign(math.Sqrt(math.Abs(x)), x)
}

type factor struct {
	r, g, b float64
}

func (f *factor) scale(v float64) {
	f.r *= v
	f.g *= v
	f.b *= v
}

func decodeDC(packed int) factor {
	return factor{
		r: sRGBToLinear(uint8(packed >> 16 & 0xff)),
		g: sRGBToLinear(uint8(packed >> 8 & 0xff)),
		b: sRGBToLinear(uint8(packed & 0xff)),
	}
}

// AC values are three base 19 digits, each quantized around 9
func decodeAC(packed int, maximumValue float64) factor {
	return factor{
		r: signedPow2(float64(packed/(19*19)-9)/9) * maximumValue,
		g: signedPow2(float64(packed/19%19-9)/9) * maximumValue,
		b: signedPow2(float64(packed%19-9)/9) * maximumValue,
	}
}

func encodeDC(dc factor) int {
	return int(linearToSRGB(dc.r))<<16 | int(linearToSRGB(dc.g))<<8 | int(linearToSRGB(dc.b))
}

func encodeAC(ac factor, maximumValue float64) int {
	quant := func(v float64) int {
		return int(math.Max(0, math.Min(18, math.Floor(signedSqrt(v/maximumValue)*9+9.5))))
	}
	return quant(ac.r)*19*19 + quant(ac.g)*19 + quant(ac.b)
}
