package tracking

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	kalmanMinStep      = 0.001 // seconds
	kalmanMaxStep      = 1.0
	kalmanInitialP     = 1000.0
	kalmanProcessNoise = 50.0
	kalmanMeasureNoise = 10.0
)

// KalmanFilter is a constant-velocity 2D filter over [x, y, vx, vy], used to
// steady the centroid of the primary tracked region
type KalmanFilter struct {
	x *mat.VecDense // state
	p *mat.Dense    // covariance
	h *mat.Dense    // measurement model
	r *mat.Dense    // measurement noise

	q           float64
	lastUpdate  time.Time
	initialized bool
}

// NewKalmanFilter creates a new Kalman filter
func NewKalmanFilter() *KalmanFilter {
	kf := &KalmanFilter{
		x: mat.NewVecDense(4, nil),
		p: mat.NewDense(4, 4, nil),
		h: mat.NewDense(2, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
		}),
		r: mat.NewDense(2, 2, []float64{
			kalmanMeasureNoise, 0,
			0, kalmanMeasureNoise,
		}),
		q: kalmanProcessNoise,
	}
	kf.Reset()
	return kf
}

// Update folds in a measurement taken at the given time and returns the
// filtered position. The first measurement after a reset is returned as-is.
func (kf *KalmanFilter) Update(x, y float64, at time.Time) (float64, float64) {
	if !kf.initialized {
		kf.x.SetVec(0, x)
		kf.x.SetVec(1, y)
		kf.x.SetVec(2, 0)
		kf.x.SetVec(3, 0)
		kf.lastUpdate = at
		kf.initialized = true
		return x, y
	}

	dt := at.Sub(kf.lastUpdate).Seconds()
	if dt < kalmanMinStep {
		dt = kalmanMinStep
	}
	if dt > kalmanMaxStep {
		dt = kalmanMaxStep
	}
	kf.lastUpdate = at

	f := mat.NewDense(4, 4, []float64{
		1, 0, dt, 0,
		0, 1, 0, dt,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})

	// Predict: x' = F x, P' = F P F^T + Q
	var xPred mat.VecDense
	xPred.MulVec(f, kf.x)

	var pPred mat.Dense
	pPred.Product(f, kf.p, f.T())
	pPred.Add(&pPred, kf.processNoise(dt))

	// Innovation y = z - H x'
	z := mat.NewVecDense(2, []float64{x, y})
	var hx, innov mat.VecDense
	hx.MulVec(kf.h, &xPred)
	innov.SubVec(z, &hx)

	// S = H P' H^T + R
	var s mat.Dense
	s.Product(kf.h, &pPred, kf.h.T())
	s.Add(&s, kf.r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		debugMsg("KALMAN", "Innovation covariance singular, resetting: "+err.Error())
		kf.Reset()
		return kf.Update(x, y, at)
	}

	// K = P' H^T S^-1
	var k mat.Dense
	k.Product(&pPred, kf.h.T(), &sInv)

	var correction mat.VecDense
	correction.MulVec(&k, &innov)
	kf.x.AddVec(&xPred, &correction)

	// P = (I - K H) P'
	var kh, ikh mat.Dense
	kh.Mul(&k, kf.h)
	ikh.Sub(identity4(), &kh)
	kf.p.Mul(&ikh, &pPred)

	return kf.x.AtVec(0), kf.x.AtVec(1)
}

// processNoise builds the discrete white-acceleration Q for step dt
func (kf *KalmanFilter) processNoise(dt float64) *mat.Dense {
	dt2 := dt * dt
	dt3 := dt2 * dt / 2
	dt4 := dt2 * dt2 / 4
	q := kf.q
	return mat.NewDense(4, 4, []float64{
		q * dt4, 0, q * dt3, 0,
		0, q * dt4, 0, q * dt3,
		q * dt3, 0, q * dt2, 0,
		0, q * dt3, 0, q * dt2,
	})
}

// Position returns the current position estimate
func (kf *KalmanFilter) Position() (float64, float64) {
	if !kf.initialized {
		return 0, 0
	}
	return kf.x.AtVec(0), kf.x.AtVec(1)
}

// Velocity returns the current velocity estimate in pixels per second
func (kf *KalmanFilter) Velocity() (float64, float64) {
	if !kf.initialized {
		return 0, 0
	}
	return kf.x.AtVec(2), kf.x.AtVec(3)
}

// Initialized reports whether the filter has seen a measurement since reset
func (kf *KalmanFilter) Initialized() bool {
	return kf.initialized
}

// Reset forgets the current track
func (kf *KalmanFilter) Reset() {
	kf.initialized = false
	kf.x.Zero()
	kf.p.Zero()
	for i := 0; i < 4; i++ {
		kf.p.Set(i, i, kalmanInitialP)
	}
}

func identity4() *mat.DiagDense {
	return mat.NewDiagDense(4, []float64{1, 1, 1, 1})
}
