package imu

// IMURaw is one six-axis reading as the wearable reports it.
type IMURaw struct {
	T float64 `json:"t"` // ms, monotonic on the sensor unit

	Ax float64 `json:"ax"` // accel
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"` // gyro
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`
}

// Payload is the per-poll document returned by the sensor unit. Either AV is
// set (single angular-velocity axis) or the six-axis arrays are.
type Payload struct {
	T  []float64 `json:"t"`
	AV []float64 `json:"av,omitempty"`

	Ax []float64 `json:"ax,omitempty"`
	Ay []float64 `json:"ay,omitempty"`
	Az []float64 `json:"az,omitempty"`
	Gx []float64 `json:"gx,omitempty"`
	Gy []float64 `json:"gy,omitempty"`
	Gz []float64 `json:"gz,omitempty"`
}

// Raw returns the i-th six-axis reading of a six-axis payload.
func (p *Payload) Raw(i int) IMURaw {
	return IMURaw{
		T:  p.T[i],
		Ax: at(p.Ax, i), Ay: at(p.Ay, i), Az: at(p.Az, i),
		Gx: at(p.Gx, i), Gy: at(p.Gy, i), Gz: at(p.Gz, i),
	}
}

func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}
