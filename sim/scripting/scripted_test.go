package scripting

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/actornet/sim"
)

var _ = Describe("Scripted Computer", func() {
	var (
		mockCtrl *gomock.Controller
		invoker  *MockInvoker
		c        *Computer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		invoker = NewMockInvoker(mockCtrl)
		c = MakeBuilder().
			WithInvoker(invoker).
			WithInitialState(json.RawMessage(`{"n":0}`)).
			Build()
		c.AssignID(3)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should send the tick across the boundary", func() {
		invoker.EXPECT().
			Invoke(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req []byte) ([]byte, error) {
				var r Request
				Expect(json.Unmarshal(req, &r)).To(Succeed())
				Expect(r.ID).To(Equal(sim.ActorID(3)))
				Expect(r.Edges).To(Equal([]sim.EdgeID{4, 6}))
				Expect(string(r.State)).To(Equal(`{"n":0}`))
				Expect(r.Incoming).To(HaveLen(1))
				Expect(r.Incoming[0].Data).To(Equal(sim.NewPathVector(1)))

				return []byte(`{
					"state": {"n": 1},
					"outgoing": [
						{"port": 2, "edge": 6,
						 "data": {"kind": "path_vector", "path": [3]}},
						{"edge": 4}
					]
				}`), nil
			})

		out, err := c.Run([]sim.EdgeID{4, 6},
			sim.Queue{sim.NewMessage(4, sim.NewPathVector(1))})

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(2))
		Expect(out.At(0)).To(Equal(sim.MsgBuilder{}.
			WithPort(2).
			WithEdge(6).
			WithData(sim.NewPathVector(3)).
			Build()))
		Expect(out.At(1).Data).To(Equal(sim.Blank{}))
		Expect(string(c.State())).To(MatchJSON(`{"n":1}`))
	})

	It("should send empty lists rather than null", func() {
		invoker.EXPECT().
			Invoke(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req []byte) ([]byte, error) {
				Expect(string(req)).To(MatchJSON(
					`{"id":3,"edges":[],"state":{"n":0},"incoming":[]}`))
				return []byte(`{"outgoing":[]}`), nil
			})

		out, err := c.Run(nil, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
		Expect(string(c.State())).To(Equal(`{"n":0}`))
	})

	It("should keep the state when the invoker fails", func() {
		invoker.EXPECT().
			Invoke(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("exit status 1"))

		_, err := c.Run(nil, nil)

		Expect(err).To(MatchError(ContainSubstring("exit status 1")))
		Expect(string(c.State())).To(Equal(`{"n":0}`))
	})

	It("should fail on a malformed response", func() {
		invoker.EXPECT().
			Invoke(gomock.Any(), gomock.Any()).
			Return([]byte(`{"state": {"n": 5}, "outgoing": [`), nil)

		_, err := c.Run(nil, nil)

		Expect(errors.Is(err, ErrInvalidResponse)).To(BeTrue())
		Expect(string(c.State())).To(Equal(`{"n":0}`))
	})

	It("should fail on an unknown payload kind", func() {
		invoker.EXPECT().
			Invoke(gomock.Any(), gomock.Any()).
			Return([]byte(
				`{"outgoing":[{"edge":1,"data":{"kind":"weird"}}]}`), nil)

		_, err := c.Run([]sim.EdgeID{1}, nil)

		Expect(errors.Is(err, ErrInvalidResponse)).To(BeTrue())
	})

	It("should turn an invoker panic into a failure", func() {
		invoker.EXPECT().
			Invoke(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, []byte) ([]byte, error) {
				panic("broken pipe")
			})

		_, err := c.Run(nil, nil)

		Expect(err).To(MatchError(ContainSubstring("broken pipe")))
	})

	It("should give each call a deadline", func() {
		c = MakeBuilder().
			WithInvoker(invoker).
			WithTimeout(time.Minute).
			Build()

		invoker.EXPECT().
			Invoke(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ []byte) ([]byte, error) {
				_, hasDeadline := ctx.Deadline()
				Expect(hasDeadline).To(BeTrue())
				return []byte(`{}`), nil
			})

		_, err := c.Run(nil, nil)

		Expect(err).NotTo(HaveOccurred())
	})

	It("should fail setup without an invoker", func() {
		Expect(MakeBuilder().Build().Setup()).NotTo(Succeed())
	})

	It("should set up an invoker that needs no preparation", func() {
		Expect(c.Setup()).To(Succeed())
	})

	It("should accept a function as invoker", func() {
		c = MakeBuilder().
			WithInvoker(InvokerFunc(
				func(context.Context, []byte) ([]byte, error) {
					return []byte(`{"outgoing":[{"edge":2}]}`), nil
				})).
			Build()

		out, err := c.Run([]sim.EdgeID{2}, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(1))
	})
})

var _ = Describe("ExecInvoker", func() {
	BeforeEach(func() {
		if _, err := exec.LookPath("sh"); err != nil {
			Skip("no shell available")
		}
	})

	It("should pass the request on stdin and read stdout", func() {
		inv := NewExecInvoker("sh", "-c", "cat")

		rsp, err := inv.Invoke(context.Background(), []byte(`{"a":1}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(string(rsp)).To(Equal(`{"a":1}`))
	})

	It("should fail on a non-zero exit status", func() {
		inv := NewExecInvoker("sh", "-c", "echo nope >&2; exit 3")

		_, err := inv.Invoke(context.Background(), nil)

		Expect(err).To(MatchError(ContainSubstring("nope")))
	})

	It("should pass extra environment", func() {
		inv := NewExecInvoker("sh", "-c", "printf %s \"$GREETING\"").
			WithEnv("GREETING=hi")

		rsp, err := inv.Invoke(context.Background(), nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(string(rsp)).To(Equal("hi"))
	})

	It("should stop at the deadline", func() {
		inv := NewExecInvoker("sh", "-c", "sleep 5")
		ctx, cancel := context.WithTimeout(
			context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := inv.Invoke(ctx, nil)

		Expect(err).To(HaveOccurred())
	})

	It("should prepare only if the command exists", func() {
		Expect(NewExecInvoker("sh").Prepare(context.Background())).
			To(Succeed())
		Expect(NewExecInvoker("no-such-command-xyz").
			Prepare(context.Background())).NotTo(Succeed())
	})

	It("should drive a scripted computer", func() {
		script := `cat >/dev/null; echo '{"state":{"k":1},"outgoing":[{"edge":0}]}'`
		c := MakeBuilder().
			WithInvoker(NewExecInvoker("sh", "-c", script)).
			Build()
		Expect(c.Setup()).To(Succeed())

		out, err := c.Run([]sim.EdgeID{0}, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(1))
		Expect(string(c.State())).To(MatchJSON(`{"k":1}`))
	})
})
