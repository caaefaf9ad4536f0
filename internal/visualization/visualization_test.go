package visualization_test

import (
	"maps"
	"slices"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/robodiagram/internal/analysis"
	"github.com/san-kum/robodiagram/internal/geometry"
	"github.com/san-kum/robodiagram/internal/lcm"
	"github.com/san-kum/robodiagram/internal/lcmt"
	"github.com/san-kum/robodiagram/internal/logging"
	"github.com/san-kum/robodiagram/internal/multibody"
	"github.com/san-kum/robodiagram/internal/parsing"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
	"github.com/san-kum/robodiagram/internal/visualization"
)

type (
	builder    = systems.Builder[scalar.Float]
	plant      = multibody.Plant[scalar.Float]
	sceneGraph = geometry.SceneGraph[scalar.Float]
)

func plantSceneGraph() (*builder, *plant, *sceneGraph) {
	GinkgoHelper()
	b := systems.NewBuilder[scalar.Float]()
	p, sg, err := multibody.AddPlantSceneGraph(b, 0.0)
	Expect(err).NotTo(HaveOccurred())
	return b, p, sg
}

func newBus() *lcm.Bus {
	GinkgoHelper()
	bus, err := lcm.New(lcm.Params{})
	Expect(err).NotTo(HaveOccurred())
	return bus
}

func simulate(b *builder, until float64) {
	GinkgoHelper()
	d, err := b.Build()
	Expect(err).NotTo(HaveOccurred())
	sim, err := analysis.New(d)
	Expect(err).NotTo(HaveOccurred())
	Expect(sim.AdvanceTo(until)).To(Succeed())
}

var _ = Describe("Config", func() {
	It("matches the visualizer defaults", func() {
		config := visualization.DefaultConfig()
		params := geometry.DefaultVisualizerParams()
		Expect(config.PublishPeriod).To(Equal(params.PublishPeriod))
		Expect(config.DefaultIllustrationColor).To(Equal(params.DefaultColor))
		Expect(config.LcmBus).To(Equal(lcm.DefaultBusName))
	})
})

var _ = Describe("ConvertConfigToParams", func() {
	It("maps the default config to illustration then proximity", func() {
		config := visualization.DefaultConfig()
		params := visualization.ConvertConfigToParams(config)

		want := []geometry.VisualizerParams{
			{
				Role:          geometry.RoleIllustration,
				DefaultColor:  config.DefaultIllustrationColor,
				PublishPeriod: config.PublishPeriod,
			},
			{
				Role:                 geometry.RoleProximity,
				DefaultColor:         config.DefaultProximityColor,
				PublishPeriod:        config.PublishPeriod,
				ShowHydroelastic:     true,
				UseRoleChannelSuffix: true,
			},
		}
		Expect(cmp.Diff(want, params)).To(BeEmpty())
	})

	It("maps non-default values", func() {
		config := visualization.DefaultConfig()
		config.PublishPeriod = 0.5
		config.PublishProximity = false
		config.DefaultIllustrationColor = geometry.NewRgba(0.25, 0.25, 0.25, 0.25)

		params := visualization.ConvertConfigToParams(config)
		Expect(params).To(HaveLen(1))
		Expect(params[0].Role).To(Equal(geometry.RoleIllustration))
		Expect(params[0].ShowHydroelastic).To(BeFalse())
		Expect(params[0].PublishPeriod).To(Equal(0.5))
		Expect(params[0].DefaultColor).To(Equal(geometry.NewRgba(0.25, 0.25, 0.25, 0.25)))
	})

	It("returns nothing when both roles are disabled", func() {
		config := visualization.DefaultConfig()
		config.PublishIllustration = false
		config.PublishProximity = false
		Expect(visualization.ConvertConfigToParams(config)).To(BeEmpty())
	})
})

var _ = Describe("ApplyConfig", func() {
	var (
		b   *builder
		p   *plant
		sg  *sceneGraph
		bus *lcm.Bus
	)

	BeforeEach(func() {
		b, p, sg = plantSceneGraph()
		bus = newBus()
	})

	It("publishes on every channel with the default config", func() {
		Expect(p.Finalize()).To(Succeed())
		observed := map[string]int{}
		_, err := bus.SubscribeAllChannels(func(channel string, _ []byte) { observed[channel]++ })
		Expect(err).NotTo(HaveOccurred())
		buses := lcm.NewBuses()
		Expect(buses.Add("default", bus)).To(Succeed())

		Expect(visualization.ApplyConfig(visualization.DefaultConfig(), b,
			visualization.WithBuses[scalar.Float](buses),
			visualization.WithPlant(p),
			visualization.WithSceneGraph(sg),
		)).To(Succeed())
		simulate(b, 0.25)

		for bus.HandleSubscriptions(1) > 0 {
		}
		Expect(slices.Collect(maps.Keys(observed))).To(ContainElements(
			"DRAKE_VIEWER_LOAD_ROBOT",
			"DRAKE_VIEWER_LOAD_ROBOT_PROXIMITY",
			"DRAKE_VIEWER_DRAW",
			"DRAKE_VIEWER_DRAW_PROXIMITY",
			"CONTACT_RESULTS",
		))
		Expect(observed["DRAKE_VIEWER_LOAD_ROBOT"]).To(Equal(1))
		Expect(observed["DRAKE_VIEWER_DRAW"]).To(BeNumerically(">=", 16))
	})

	It("publishes nothing when everything is disabled", func() {
		Expect(p.Finalize()).To(Succeed())
		config := visualization.DefaultConfig()
		config.PublishIllustration = false
		config.PublishProximity = false
		config.PublishContacts = false

		received := 0
		_, err := bus.SubscribeAllChannels(func(string, []byte) { received++ })
		Expect(err).NotTo(HaveOccurred())
		buses := lcm.NewBuses()
		Expect(buses.Add("default", bus)).To(Succeed())

		Expect(visualization.ApplyConfig(config, b,
			visualization.WithBuses[scalar.Float](buses),
			visualization.WithPlant(p),
			visualization.WithSceneGraph(sg),
		)).To(Succeed())
		simulate(b, 0.25)

		bus.HandleSubscriptions(1)
		Expect(received).To(BeZero())
	})

	It("ignores a nil bus registry when given a transport", func() {
		Expect(p.Finalize()).To(Succeed())
		config := visualization.DefaultConfig()
		config.LcmBus = "will_be_ignored"
		before := len(b.Systems())

		Expect(visualization.ApplyConfig(config, b, visualization.WithLcm[scalar.Float](bus))).To(Succeed())
		Expect(b.Systems()).To(HaveLen(before + 3))
		_, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
	})

	It("ignores a missing bus name when given a transport", func() {
		Expect(p.Finalize()).To(Succeed())
		config := visualization.DefaultConfig()
		config.LcmBus = "will_be_ignored"

		Expect(visualization.ApplyConfig(config, b,
			visualization.WithBuses[scalar.Float](lcm.NewBuses()),
			visualization.WithLcm[scalar.Float](bus),
		)).To(Succeed())
		_, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
	})

	It("skips publishers and warns when the bus cannot be resolved", func() {
		core, logs := observer.New(zapcore.WarnLevel)
		logging.Set(zap.New(core))
		DeferCleanup(logging.Set, (*zap.Logger)(nil))

		before := len(b.Systems())
		Expect(visualization.ApplyConfig(visualization.DefaultConfig(), b,
			visualization.WithBuses[scalar.Float](lcm.NewBuses()),
		)).To(Succeed())
		Expect(b.Systems()).To(HaveLen(before))

		entries := logs.FilterMessage("visualization publishers skipped").All()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].ContextMap()).To(HaveKeyWithValue("lcm_bus", "default"))
		Expect(entries[0].ContextMap()["error"]).To(ContainSubstring("visualization.ApplyConfig requested bus"))
	})

	It("publishes on the default bus when no bus is named", func() {
		Expect(p.Finalize()).To(Succeed())
		buses := lcm.NewBuses()
		Expect(buses.Add(lcm.DefaultBusName, bus)).To(Succeed())
		config := visualization.DefaultConfig()
		config.LcmBus = ""
		Expect(visualization.BusName(config)).To(Equal(lcm.DefaultBusName))

		before := len(b.Systems())
		Expect(visualization.ApplyConfig(config, b,
			visualization.WithBuses[scalar.Float](buses),
			visualization.WithPlant(p),
			visualization.WithSceneGraph(sg),
		)).To(Succeed())
		Expect(b.Systems()).To(HaveLen(before + 3))

		observed := map[string]int{}
		_, err := bus.SubscribeAllChannels(func(channel string, _ []byte) { observed[channel]++ })
		Expect(err).NotTo(HaveOccurred())
		simulate(b, 0.1)
		for bus.HandleSubscriptions(1) > 0 {
		}
		Expect(observed).To(HaveKey("DRAKE_VIEWER_DRAW"))
	})

	It("rejects a non-positive publish period", func() {
		config := visualization.DefaultConfig()
		config.PublishPeriod = 0
		err := visualization.ApplyConfig(config, b, visualization.WithLcm[scalar.Float](bus))
		Expect(err).To(MatchError(geometry.ErrInvalidPeriod))
	})

	It("rolls back every publisher when one cannot be wired", func() {
		stranger, err := multibody.NewPlant[scalar.Float](0)
		Expect(err).NotTo(HaveOccurred())
		Expect(stranger.Finalize()).To(Succeed())
		before := len(b.Systems())

		err = visualization.ApplyConfig(visualization.DefaultConfig(), b,
			visualization.WithLcm[scalar.Float](bus),
			visualization.WithPlant(stranger),
		)
		Expect(err).To(MatchError(ContainSubstring("contact results")))
		Expect(b.Systems()).To(HaveLen(before))
		Expect(b.Connections()).To(HaveLen(2))
	})

	It("draws every body of a loaded model", func() {
		_, err := parsing.NewParser(p).AddBuiltin("box")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Finalize()).To(Succeed())

		var last []byte
		_, err = bus.Subscribe(geometry.DrawChannel, func(data []byte) { last = data })
		Expect(err).NotTo(HaveOccurred())
		Expect(visualization.ApplyConfig(visualization.DefaultConfig(), b,
			visualization.WithLcm[scalar.Float](bus))).To(Succeed())
		simulate(b, 0.1)
		bus.HandleSubscriptions(0)

		Expect(last).NotTo(BeEmpty())
		var draw lcmt.ViewerDraw
		Expect(lcmt.Decode(last, &draw)).To(Succeed())
		Expect(draw.LinkNames).To(Equal([]string{"box::box"}))
		Expect(draw.Positions[0][2]).To(BeNumerically("<", 0.1))
	})
})

var _ = Describe("AddDefault", func() {
	It("builds and simulates", func() {
		b, p, _ := plantSceneGraph()
		Expect(p.Finalize()).To(Succeed())
		Expect(visualization.AddDefault(b)).To(Succeed())
		simulate(b, 0.25)
	})

	It("fails without a plant", func() {
		err := visualization.AddDefault(systems.NewBuilder[scalar.Float]())
		Expect(err).To(MatchError(systems.ErrMissingSubsystem))
		Expect(err).To(MatchError(MatchRegexp(`does not contain.*plant`)))
	})

	It("fails without a scene graph", func() {
		b := systems.NewBuilder[scalar.Float]()
		p, err := multibody.NewPlant[scalar.Float](0)
		Expect(err).NotTo(HaveOccurred())
		p.SetName("plant")
		Expect(p.Finalize()).To(Succeed())
		Expect(b.AddSystem(p)).To(Succeed())

		err = visualization.AddDefault(b)
		Expect(err).To(MatchError(systems.ErrMissingSubsystem))
		Expect(err).To(MatchError(MatchRegexp(`does not contain.*scene_graph`)))
	})

	It("fails when plant and scene graph names are swapped", func() {
		b, p, sg := plantSceneGraph()
		p.SetName("scene_graph")
		sg.SetName("plant")

		err := visualization.AddDefault(b)
		Expect(err).To(MatchError(systems.ErrWrongSubsystemType))
		Expect(err).To(MatchError(ContainSubstring("of the wrong type")))
	})
})
