package eos_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/san-kum/vnrsolve/internal/buffer"
	"github.com/san-kum/vnrsolve/internal/eos"
)

func fromSlice(label string, values ...float64) *buffer.Buffer {
	b, err := buffer.FromSlice(label, values)
	Expect(err).NotTo(HaveOccurred())
	return b
}

func relErr(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs(got-want) / math.Abs(want)
}

var _ = Describe("MieGruneisen", func() {
	var (
		params eos.Params
		mg     *eos.MieGruneisen
	)

	BeforeEach(func() {
		params = eos.Copper()
		var err error
		mg, err = eos.NewMieGruneisen(params)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("reference copper states", func() {
		var (
			volume, energy *buffer.Buffer
			cache          *eos.MieGruneisenCache
		)

		BeforeEach(func() {
			volume = fromSlice("specific_volume", 1/8700.0, 1/9200.0)
			energy = fromSlice("internal_energy", 1e4, 1e6)
			var err error
			cache, err = mg.InitCache(volume)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(cache.Close)
		})

		It("computes pressure and dP/de", func() {
			pressure := buffer.MustNew(2, "pressure")
			dpde := buffer.MustNew(2, "gamma_per_vol")
			Expect(cache.PressureAndDerivative(energy, pressure, dpde)).To(Succeed())

			expectedP := []float64{-3.391122999999982e+09, 2.248138143555919e+10}
			expectedG := []float64{17930.499999999996, 18165.5}
			for i := range expectedP {
				Expect(relErr(pressure.At(i), expectedP[i])).To(BeNumerically("<", 1e-12))
				Expect(relErr(dpde.At(i), expectedG[i])).To(BeNumerically("<", 1e-12))
			}
		})

		It("computes pressure and sound speed", func() {
			pressure := buffer.MustNew(2, "pressure")
			cson := buffer.MustNew(2, "cson")
			Expect(cache.PressureAndSoundSpeed(volume, energy, pressure, cson)).To(Succeed())

			expectedP := []float64{-3.391122999999982e+09, 2.248138143555919e+10}
			expectedC := []float64{3837.312029974254, 4663.450646599814}
			for i := range expectedC {
				Expect(relErr(pressure.At(i), expectedP[i])).To(BeNumerically("<", 1e-12))
				Expect(relErr(cson.At(i), expectedC[i])).To(BeNumerically("<", 1e-12))
			}
		})

		It("selects the regime from the sign of the compression", func() {
			Expect(params.Compression(volume.At(0))).To(BeNumerically("<", 0))
			Expect(params.Compression(volume.At(1))).To(BeNumerically(">", 0))

			release := cache.Terms(0)
			Expect(release.EInth).To(Equal(params.EZero))
			Expect(release.DEInth).To(BeZero())

			compression := cache.Terms(1)
			Expect(compression.EInth).To(BeNumerically(">", params.EZero))
			Expect(compression.DEInth).NotTo(BeZero())
		})
	})

	Describe("dP/dv", func() {
		dgam := func(p eos.Params) float64 { return p.RhoZero * (p.GammaZero - p.CoeffB) }

		DescribeTable("matches a central finite difference",
			func(density, energy float64) {
				v := 1 / density
				pressureAt := func(v float64) float64 {
					t := params.TermsAt(v)
					return t.Phi + t.GammaPerVol*(energy-t.EInth)
				}
				t := params.TermsAt(v)
				analytic := t.DPhi + (dgam(params)-t.GammaPerVol)*(energy-t.EInth)/v - t.GammaPerVol*t.DEInth

				numeric := fd.Derivative(pressureAt, v, &fd.Settings{Formula: fd.Central, Step: v * 1e-6})
				Expect(relErr(analytic, numeric)).To(BeNumerically("<", 1e-6))

				cache, err := mg.InitCache(fromSlice("v", v))
				Expect(err).NotTo(HaveOccurred())
				defer cache.Close()

				pressure := buffer.MustNew(1, "p")
				cson := buffer.MustNew(1, "c")
				Expect(cache.PressureAndSoundSpeed(fromSlice("v", v), fromSlice("e", energy), pressure, cson)).To(Succeed())

				direct := math.Sqrt(v * v * (pressure.At(0)*t.GammaPerVol - analytic))
				Expect(relErr(cson.At(0), direct)).To(BeNumerically("<=", 1e-12))

				fromNumeric := math.Sqrt(v * v * (pressure.At(0)*t.GammaPerVol - numeric))
				Expect(relErr(cson.At(0), fromNumeric)).To(BeNumerically("<", 1e-6))
			},
			Entry("release", 8700.0, 1e4),
			Entry("mild compression", 9200.0, 1e6),
			Entry("reference compression", 9500.0, 2e5),
			Entry("strong compression", 12000.0, 5e5),
		)

		It("uses the analytic Hugoniot derivatives", func() {
			p := params
			p.S2, p.S3, p.EZero = 0.3, -0.1, 50
			for _, density := range []float64{9100, 9800, 11000} {
				v := 1 / density
				t := p.TermsAt(v)
				dphi := fd.Derivative(func(v float64) float64 { return p.TermsAt(v).Phi }, v, &fd.Settings{Formula: fd.Central, Step: v * 1e-6})
				deinth := fd.Derivative(func(v float64) float64 { return p.TermsAt(v).EInth }, v, &fd.Settings{Formula: fd.Central, Step: v * 1e-6})
				Expect(relErr(t.DPhi, dphi)).To(BeNumerically("<", 1e-6))
				Expect(relErr(t.DEInth, deinth)).To(BeNumerically("<", 1e-6))
			}
		})
	})

	Describe("the compression/release boundary", func() {
		It("does not divide by zero when epsv is exactly zero", func() {
			p := eos.Params{CZero: 2, S1: 1.5, RhoZero: 1, GammaZero: 2, CoeffB: 0.5, EZero: 3}
			Expect(p.Compression(1)).To(BeZero())

			t := p.TermsAt(1)
			Expect(t.Phi).To(BeZero())
			Expect(t.EInth).To(Equal(3.0))
			Expect(t.DPhi).To(Equal(-4.0))
			Expect(t.GammaPerVol).To(Equal(2.0))
			for _, x := range []float64{t.Phi, t.DPhi, t.EInth, t.DEInth, t.GammaPerVol} {
				Expect(math.IsNaN(x) || math.IsInf(x, 0)).To(BeFalse())
			}
		})

		It("is continuous across epsv = 0", func() {
			v0 := 1 / params.RhoZero
			below := params.TermsAt(v0 * (1 - 1e-9))
			above := params.TermsAt(v0 * (1 + 1e-9))

			Expect(params.Compression(v0 * (1 - 1e-9))).To(BeNumerically(">", 0))
			Expect(params.Compression(v0 * (1 + 1e-9))).To(BeNumerically("<", 0))
			scale := 2e-9 * params.RhoZero * params.CZero * params.CZero
			Expect(math.Abs(below.Phi)).To(BeNumerically("<", scale))
			Expect(math.Abs(above.Phi)).To(BeNumerically("<", scale))
			Expect(relErr(below.Phi, -above.Phi)).To(BeNumerically("<", 1e-6))
			Expect(relErr(below.DPhi, above.DPhi)).To(BeNumerically("<", 1e-6))
			Expect(relErr(below.GammaPerVol, above.GammaPerVol)).To(BeNumerically("<", 1e-6))
			Expect(math.Abs(below.EInth - above.EInth)).To(BeNumerically("<", 1e-6))
		})
	})

	Describe("cache lifecycle", func() {
		It("is deterministic across repeated Init", func() {
			volume := fromSlice("v", 1/8230.0, 1/9500.0, 1/8930.0, 1/12000.0)
			first, err := mg.InitCache(volume)
			Expect(err).NotTo(HaveOccurred())
			defer first.Close()
			second, err := mg.InitCache(volume)
			Expect(err).NotTo(HaveOccurred())
			defer second.Close()

			for i := 0; i < volume.Len(); i++ {
				Expect(second.Terms(i)).To(Equal(first.Terms(i)))
			}

			Expect(first.Refresh(volume)).To(Succeed())
			for i := 0; i < volume.Len(); i++ {
				Expect(first.Terms(i)).To(Equal(second.Terms(i)))
			}
		})

		It("rejects operands of the wrong size", func() {
			cache, err := mg.Init(fromSlice("v", 1/9000.0, 1/9100.0))
			Expect(err).NotTo(HaveOccurred())
			defer cache.Close()

			err = cache.PressureAndDerivative(fromSlice("e", 1), buffer.MustNew(1, "p"), buffer.MustNew(1, "g"))
			Expect(errors.Is(err, eos.ErrSizeMismatch)).To(BeTrue())
		})

		It("leaves the cache untouched when a refresh is rejected", func() {
			volume := fromSlice("v", 1/9200.0, 1/8700.0, 1/9500.0)
			cache, err := mg.InitCache(volume)
			Expect(err).NotTo(HaveOccurred())
			defer cache.Close()

			before := []eos.Terms{cache.Terms(0), cache.Terms(1), cache.Terms(2)}
			err = cache.Refresh(fromSlice("v", 1/12000.0, 1/11000.0, -1e-4))
			Expect(errors.Is(err, eos.ErrInvalidVolume)).To(BeTrue())
			for i, want := range before {
				Expect(cache.Terms(i)).To(Equal(want))
			}
		})

		It("rejects non-positive specific volumes", func() {
			_, err := mg.Init(fromSlice("v", 1e-4, 0))
			Expect(errors.Is(err, eos.ErrInvalidVolume)).To(BeTrue())

			_, err = mg.Init(buffer.MustNew(0, "empty"))
			Expect(errors.Is(err, eos.ErrInvalidVolume)).To(BeTrue())
		})

		It("closes the cache on every path of With", func() {
			var captured eos.Cache
			boom := errors.New("boom")
			err := eos.With(mg, fromSlice("v", 1/9000.0), func(c eos.Cache) error {
				captured = c
				return boom
			})
			Expect(errors.Is(err, boom)).To(BeTrue())

			err = captured.PressureAndDerivative(fromSlice("e", 1), buffer.MustNew(1, "p"), buffer.MustNew(1, "g"))
			Expect(errors.Is(err, eos.ErrClosed)).To(BeTrue())
			Expect(captured.Close()).To(Succeed())
		})
	})

	Describe("sound speed invariant", func() {
		It("reports the offending cell instead of aborting", func() {
			volume := fromSlice("v", 1/9200.0, 1/8700.0)
			energy := fromSlice("e", 1e6, -1e7)
			pressure := buffer.MustNew(2, "p")
			cson := buffer.MustNew(2, "c")

			err := eos.With(mg, volume, func(c eos.Cache) error {
				return c.PressureAndSoundSpeed(volume, energy, pressure, cson)
			})

			Expect(errors.Is(err, eos.ErrNegativeSoundSpeed)).To(BeTrue())
			var serr *eos.SoundSpeedError
			Expect(errors.As(err, &serr)).To(BeTrue())
			Expect(serr.Cell).To(Equal(1))
			Expect(serr.SpecificVolume).To(Equal(1 / 8700.0))
			Expect(serr.SquaredSoundSpeed).To(BeNumerically("<", 0))
			Expect(serr.DPDE).To(BeNumerically("~", 17930.5, 1e-6))
			Expect(serr.Error()).To(ContainSubstring("cell 1"))

			Expect(relErr(cson.At(0), 4663.450646599814)).To(BeNumerically("<", 1e-12))
		})
	})

	Describe("parameter validation", func() {
		It("rejects non-physical constants", func() {
			bad := eos.Copper()
			bad.RhoZero = 0
			_, err := eos.NewMieGruneisen(bad)
			Expect(errors.Is(err, eos.ErrInvalidParams)).To(BeTrue())

			bad = eos.Copper()
			bad.S1 = math.NaN()
			Expect(errors.Is(bad.Validate(), eos.ErrInvalidParams)).To(BeTrue())
		})
	})
})
