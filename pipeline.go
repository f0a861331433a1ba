package audiopipe

import (
	"context"
	"time"

	"audiopipe/internal/adapt"
	"audiopipe/internal/jitter"
	"audiopipe/internal/rtpframe"

	"golang.org/x/sync/errgroup"
)

// PacketSender transmits one already-framed packet to the remote peer.
type PacketSender interface {
	Send(pkt []byte) error
}

// PacketReceiver blocks for one datagram from the remote peer, honoring
// ctx's deadline or cancellation (spec §5: "network recv may use a
// caller-supplied timeout"). An implementation reports loss by returning
// a zero-length packet rather than an error.
type PacketReceiver interface {
	Recv(ctx context.Context) ([]byte, error)
}

// NetworkStats is one measurement interval's connection quality, fed to
// the adaptive bitrate/jitter-depth loop (spec §4.9).
type NetworkStats struct {
	LossRate float64 // 0.0–1.0
	RTTMs    float64 // 0 means no measurement yet
	JitterMs float64 // inter-arrival jitter, 0 means no measurement yet
}

// StatsProbe supplies the adaptive loop's periodic measurement. How the
// caller derives loss/RTT/jitter (RTCP-style feedback, sequence-number
// bookkeeping, ...) is outside this package's concern.
type StatsProbe func() NetworkStats

const adaptInterval = time.Second

// SendPipeline carries encoded frames from an Encoder to the network,
// stamping each packet with an RTP header and, if a StatsProbe is
// supplied, steering the encoder's bitrate and FEC redundancy off the
// ladder in internal/adapt. Grounded on the teacher's captureLoop
// (audio.go): a tight read-encode-write loop, generalized here to write
// to the wire instead of a device, and supervised with an errgroup in
// place of the teacher's raw sync.WaitGroup so a failure in either the
// send loop or the adapt loop cancels the other.
type SendPipeline struct {
	enc    *Encoder
	framer *rtpframe.Framer
	out    PacketSender
	probe  StatsProbe

	pktBuf      []byte
	currentKbps int
}

// NewSendPipeline assembles a send path. probe may be nil to run the
// encoder at its preset's fixed bitrate with no adaptation.
func NewSendPipeline(enc *Encoder, ssrc uint32, out PacketSender, probe StatsProbe) *SendPipeline {
	return &SendPipeline{
		enc:         enc,
		framer:      rtpframe.New(FrameSize, ssrc),
		out:         out,
		probe:       probe,
		pktBuf:      make([]byte, MaxMusicPacketBytes),
		currentKbps: adapt.DefaultKbps,
	}
}

// Run drives the send loop until ctx is canceled or the encoder's source
// finalizes, returning the first error from either the send loop or (if
// a probe was supplied) the sibling adaptive-bitrate loop.
func (p *SendPipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.sendLoop(ctx) })
	if p.probe != nil {
		g.Go(func() error { return p.adaptLoop(ctx) })
	}
	return g.Wait()
}

func (p *SendPipeline) sendLoop(ctx context.Context) error {
	if err := p.enc.Start(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			p.enc.Stop()
			return ctx.Err()
		default:
		}

		p.enc.LockState()
		state := p.enc.State()
		p.enc.UnlockState()

		switch state {
		case StateFinalized:
			return nil
		case StateStopped:
			p.enc.WaitActive()
			continue
		}

		n, err := p.enc.Encode(p.pktBuf)
		if err != nil {
			return err
		}
		if n == 0 {
			continue // VAD/DTX gated: nothing to send this tick
		}
		framed, err := p.framer.Wrap(p.pktBuf[:n])
		if err != nil {
			return err
		}
		if err := p.out.Send(framed); err != nil {
			return err
		}
	}
}

func (p *SendPipeline) adaptLoop(ctx context.Context) error {
	ticker := time.NewTicker(adaptInterval)
	defer ticker.Stop()

	smoothedLoss := 0.0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		stats := p.probe()
		smoothedLoss = adapt.SmoothLoss(smoothedLoss, stats.LossRate, 0.3)

		next := adapt.NextBitrate(p.currentKbps, smoothedLoss, stats.RTTMs)
		if next != p.currentKbps {
			if err := p.enc.SetBitrate(next * 1000); err != nil {
				return err
			}
			p.currentKbps = next
		}
		if err := p.enc.SetPacketLoss(int(smoothedLoss * 100)); err != nil {
			return err
		}
	}
}

// RecvPipeline pulls RTP-framed packets off the network into a jitter
// buffer, optionally steering the buffer's target depth off a
// StatsProbe via internal/adapt.TargetJitterDepth.
type RecvPipeline struct {
	in    PacketReceiver
	buf   *jitter.Buffer
	probe StatsProbe
}

// NewRecvPipeline assembles a receive path feeding buf. probe may be nil
// to hold the buffer's depth at whatever it was configured with.
func NewRecvPipeline(in PacketReceiver, buf *jitter.Buffer, probe StatsProbe) *RecvPipeline {
	return &RecvPipeline{in: in, buf: buf, probe: probe}
}

// Run drives the receive loop until ctx is canceled, returning the first
// error from either the receive loop or (if a probe was supplied) the
// sibling adaptive-depth loop.
func (r *RecvPipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.recvLoop(ctx) })
	if r.probe != nil {
		g.Go(func() error { return r.depthLoop(ctx) })
	}
	return g.Wait()
}

func (r *RecvPipeline) recvLoop(ctx context.Context) error {
	for {
		pkt, err := r.in.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if len(pkt) == 0 {
			continue // receiver-reported loss; nothing to push this tick
		}
		payload, err := rtpframe.Unwrap(pkt)
		if err != nil {
			continue // malformed datagram: drop and keep listening
		}
		if err := r.buf.Push(payload); err != nil {
			if err == jitter.ErrClosed {
				return err
			}
			continue // oversize packet: dropped per spec §7
		}
	}
}

func (r *RecvPipeline) depthLoop(ctx context.Context) error {
	ticker := time.NewTicker(adaptInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		stats := r.probe()
		r.buf.SetDepth(adapt.TargetJitterDepth(stats.JitterMs, stats.LossRate))
	}
}
