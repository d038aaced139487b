package predict

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	kalmanInitialCovariance = 1000.0
	kalmanProcessNoise      = 0.1
	kalmanProcessStep       = 0.1
	kalmanMeasurementNoise  = 10.0
	kalmanMinStep           = 0.001
)

// Kalman is a constant-velocity Kalman filter over [x, y, vx, vy]. Update
// returns the filtered position extrapolated by Lead.
type Kalman struct {
	Lead time.Duration

	x *mat.VecDense
	p *mat.Dense
	q *mat.Dense
	r *mat.Dense
	h *mat.Dense

	last        time.Time
	initialized bool
}

// NewKalman creates a filter that predicts lead ahead
func NewKalman(lead time.Duration) *Kalman {
	dt := kalmanProcessStep
	q := kalmanProcessNoise
	k := &Kalman{
		Lead: lead,
		q: mat.NewDense(4, 4, []float64{
			q * dt * dt * dt * dt / 4, 0, q * dt * dt * dt / 2, 0,
			0, q * dt * dt * dt * dt / 4, 0, q * dt * dt * dt / 2,
			q * dt * dt * dt / 2, 0, q * dt * dt, 0,
			0, q * dt * dt * dt / 2, 0, q * dt * dt,
		}),
		r: mat.NewDense(2, 2, []float64{
			kalmanMeasurementNoise, 0,
			0, kalmanMeasurementNoise,
		}),
		h: mat.NewDense(2, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
		}),
	}
	k.Reset()
	return k
}

// Reset forgets the state
func (k *Kalman) Reset() {
	k.x = mat.NewVecDense(4, nil)
	k.p = mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		k.p.Set(i, i, kalmanInitialCovariance)
	}
	k.initialized = false
}

// Update feeds a measurement and returns the predicted position
func (k *Kalman) Update(raw Point, at time.Time) Point {
	if !k.initialized {
		k.x.SetVec(0, raw.X)
		k.x.SetVec(1, raw.Y)
		k.last = at
		k.initialized = true
		return raw
	}

	dt := at.Sub(k.last).Seconds()
	if dt < kalmanMinStep {
		dt = kalmanMinStep
	}
	k.last = at

	f := mat.NewDense(4, 4, []float64{
		1, 0, dt, 0,
		0, 1, 0, dt,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})

	// predict
	var xPred mat.VecDense
	xPred.MulVec(f, k.x)

	var fp, pPred mat.Dense
	fp.Mul(f, k.p)
	pPred.Mul(&fp, f.T())
	pPred.Add(&pPred, k.q)

	// update
	z := mat.NewVecDense(2, []float64{raw.X, raw.Y})
	var hx, innovation mat.VecDense
	hx.MulVec(k.h, &xPred)
	innovation.SubVec(z, &hx)

	var hp, s mat.Dense
	hp.Mul(k.h, &pPred)
	s.Mul(&hp, k.h.T())
	s.Add(&s, k.r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		k.x.CopyVec(&xPred)
		k.p.Copy(&pPred)
		return k.position()
	}

	var pht, gain mat.Dense
	pht.Mul(&pPred, k.h.T())
	gain.Mul(&pht, &sInv)

	var correction mat.VecDense
	correction.MulVec(&gain, &innovation)
	k.x.AddVec(&xPred, &correction)

	var kh, ikh mat.Dense
	kh.Mul(&gain, k.h)
	ikh.Sub(mat.NewDiagDense(4, []float64{1, 1, 1, 1}), &kh)
	k.p.Mul(&ikh, &pPred)

	return k.position()
}

// Velocity returns the estimated velocity in pixels per second
func (k *Kalman) Velocity() (float64, float64) {
	return k.x.AtVec(2), k.x.AtVec(3)
}

func (k *Kalman) position() Point {
	lead := k.Lead.Seconds()
	return Point{
		X: k.x.AtVec(0) + k.x.AtVec(2)*lead,
		Y: k.x.AtVec(1) + k.x.AtVec(3)*lead,
	}
}
