package multibody

import (
	"fmt"

	"github.com/san-kum/robodiagram/internal/lcm"
	"github.com/san-kum/robodiagram/internal/lcmt"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// ContactResultsPublisherKind is the Kind of every ContactResultsPublisher.
const ContactResultsPublisherKind systems.Kind = "contact_results_publisher"

// ContactChannel carries lcmt.ContactResults messages.
const ContactChannel = "CONTACT_RESULTS"

// ContactResultsPublisher publishes a plant's contact results periodically,
// including instants with no contact.
type ContactResultsPublisher[T scalar.Value[T]] struct {
	*systems.LeafSystem[T]

	bus    lcm.Interface
	period float64
	input  *systems.InputPort[T]
}

func NewContactResultsPublisher[T scalar.Value[T]](bus lcm.Interface, period float64) (*ContactResultsPublisher[T], error) {
	if bus == nil {
		return nil, fmt.Errorf("multibody: contact publisher needs a bus")
	}
	if !(period > 0) {
		return nil, fmt.Errorf("%w: publish period %g", ErrParameterBounds, period)
	}
	c := &ContactResultsPublisher[T]{
		LeafSystem: systems.NewLeafSystem[T](ContactResultsPublisherKind),
		bus:        bus,
		period:     period,
	}
	c.input = c.DeclareInputPort("contact_results")
	c.DeclarePeriodicPublish(period, 0, c.publish)
	return c, nil
}

func (c *ContactResultsPublisher[T]) ContactResultsInput() *systems.InputPort[T] { return c.input }
func (c *ContactResultsPublisher[T]) Period() float64                            { return c.period }

func (c *ContactResultsPublisher[T]) publish(ctx *systems.Context[T]) error {
	results, err := systems.EvalInput[ContactResults[T]](c.input, ctx)
	if err != nil {
		return err
	}
	msg := lcmt.ContactResults{
		TimestampMicros: lcmt.Micros(ctx.Time().Float()),
		PointPairs:      make([]lcmt.PointPairContact, 0, len(results.PointPairs)),
	}
	for _, pp := range results.PointPairs {
		msg.PointPairs = append(msg.PointPairs, lcmt.PointPairContact{
			BodyA:        pp.BodyName,
			BodyB:        "ground",
			ContactPoint: [3]float64{pp.Point[0].Float(), pp.Point[1].Float(), pp.Point[2].Float()},
			ContactForce: [3]float64{0, 0, pp.Force.Float()},
			Depth:        pp.Depth.Float(),
		})
	}
	data, err := lcmt.Encode(msg)
	if err != nil {
		return err
	}
	return c.bus.Publish(ContactChannel, data)
}

// ConnectContactResultsToLcm adds a ContactResultsPublisher fed by plant. On
// failure b is left unchanged.
func ConnectContactResultsToLcm[T scalar.Value[T]](b *systems.Builder[T], plant *Plant[T], bus lcm.Interface, period float64) (*ContactResultsPublisher[T], error) {
	if plant == nil {
		return nil, fmt.Errorf("multibody: contact publisher needs a plant")
	}
	var pub *ContactResultsPublisher[T]
	err := b.Atomically(func() error {
		var err error
		pub, err = NewContactResultsPublisher[T](bus, period)
		if err != nil {
			return err
		}
		if err := b.AddSystem(pub); err != nil {
			return err
		}
		return b.Connect(plant.ContactResultsOutput(), pub.ContactResultsInput())
	})
	if err != nil {
		return nil, err
	}
	return pub, nil
}
