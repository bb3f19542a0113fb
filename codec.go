package sgp

import (
	"context"
	"fmt"
	"image"

	"github.com/google/uuid"
)

// Codec holds the operator's embedding key and exposes the
// watermarking lifecycle operations of spec.md §4.H plus the
// supplemented operations of SPEC_FULL.md components H.1 and H.2. A
// Codec is safe for concurrent use: it holds no mutable state beyond
// the key, which is read-only after construction.
type Codec struct {
	key    []byte
	strict bool
	log    *Logger
}

// NewCodec constructs a Codec bound to key, the shared secret that
// drives BlockOrder for every image this Codec embeds into or extracts
// from. strict enables rejection of nonzero reserved bits on decode
// (spec.md §9's resolved open question: lenient by default).
func NewCodec(key []byte, strict bool, log *Logger) *Codec {
	if log == nil {
		log = NewLogger(LevelInfo, nil)
	}
	return &Codec{key: append([]byte(nil), key...), strict: strict, log: log}
}

// embed runs the full forward pipeline — YCrCb split, Haar DWT, block
// selection, per-block DCT + QIM embedding of rec's 256 bits with R=5
// redundancy, inverse DCT, inverse DWT, YCrCb join — returning the
// watermarked image. It is the single code path CreateMaster,
// GenerateDistribution, and UpdatePermissions all call.
func (c *Codec) embed(img image.Image, rec Record) (*image.RGBA, error) {
	buf, err := rec.Serialize()
	if err != nil {
		return nil, err
	}
	bits := unpackBits(buf)

	y, cb, cr, width, height := splitYCrCb(img)
	sb := haarForward(y)

	coords, err := selectEmbedBlocks(sb.HL, c.key, sb.width, sb.height)
	if err != nil {
		if _, ok := err.(*internalError); ok {
			return nil, ErrTooSmall
		}
		return nil, err
	}

	for i, coord := range coords {
		var block dctBlock8x8
		readBlock(sb.HL, coord, &block)
		forwardDCT2D(&block)
		qimEmbed(&block, qimDelta, int(bits[i%PayloadBits]))
		inverseDCT2D(&block)
		writeBlock(sb.HL, coord, &block)
	}

	rebuiltY := haarInverse(sb, width, height)
	return joinYCrCb(rebuiltY, cb, cr, width, height), nil
}

// CreateMaster implements spec.md §4.H's master-creation entry point:
// extract whatever payload (if any) is already embedded in img, run it
// and actorUID through the §4.G state machine (drm.go's
// planCreateMaster), and embed the resulting record. A failed extraction
// is treated as "no existing payload" (state A), matching
// original_source's create_master_copy, which falls back to a fresh
// master whenever extract_watermark raises. Case D
// (*DerivativeForbiddenError) is returned before any pixels are touched.
func (c *Codec) CreateMaster(img image.Image, actorUID UID, allowDerivative, allowReprint bool) (*image.RGBA, error) {
	var existing *Record
	if rec, _, _, err := ExtractMultiScale(img, c.key, c.strict); err == nil {
		existing = rec
	}

	state, next, err := planCreateMaster(existing, actorUID, allowDerivative, allowReprint)
	if err != nil {
		c.log.Warnf("create master for uid %s rejected: %v", actorUID, err)
		return nil, err
	}

	out, err := c.embed(img, next)
	if err != nil {
		c.log.Errorf("create master for uid %s: %v", actorUID, err)
		return nil, err
	}
	c.log.Infof("created master for uid %s (%s)", actorUID, state)
	return out, nil
}

// DistributionResult is the outcome of GenerateDistribution: the
// watermarked copy plus a caller-facing correlation id for audit
// logging, independent of any UID embedded in the image itself.
type DistributionResult struct {
	Image          *image.RGBA
	DistributionID uuid.UUID
}

// GenerateDistribution implements spec.md §4.H's distribution entry
// point. Distribution never invokes the §4.G state machine: it extracts
// the payload embedded in source, fails with ErrNotAMaster unless the
// extracted record is a master (current_uid == 0), and otherwise embeds
// (original_uid, recipient, flags) into the original master pixels.
func (c *Codec) GenerateDistribution(source image.Image, recipient UID) (*DistributionResult, error) {
	rec, _, _, err := ExtractMultiScale(source, c.key, c.strict)
	if err != nil {
		c.log.Errorf("generate distribution: source did not decode: %v", err)
		return nil, fmt.Errorf("sgp: %w: %v", ErrNotAMaster, err)
	}
	if !rec.IsMaster() {
		c.log.Warnf("generate distribution for recipient %s: source is not a master", recipient)
		return nil, ErrNotAMaster
	}

	next := Record{
		OriginalUID:     rec.OriginalUID,
		CurrentUID:      recipient,
		AllowDerivative: rec.AllowDerivative,
		AllowReprint:    rec.AllowReprint,
	}

	out, err := c.embed(source, next)
	if err != nil {
		return nil, err
	}

	return &DistributionResult{
		Image:          out,
		DistributionID: uuid.New(),
	}, nil
}

// UpdatePermissions implements the supplemented operation H.1
// (original_source's update_master_permissions): re-embeds source's
// record with new permission flags, refusing unless source is itself a
// master.
func (c *Codec) UpdatePermissions(source image.Image, allowDerivative, allowReprint bool) (*image.RGBA, error) {
	rec, _, _, err := ExtractMultiScale(source, c.key, c.strict)
	if err != nil {
		return nil, fmt.Errorf("sgp: %w: %v", ErrNotAMaster, err)
	}

	next, err := planPermissionUpdate(*rec, allowDerivative, allowReprint)
	if err != nil {
		return nil, err
	}
	return c.embed(source, next)
}

// AuditVerdict is the top-level outcome of an Audit call (spec.md §6's
// audit record: `verdict ∈ {watermarked, no_watermark}`).
type AuditVerdict int

const (
	// VerdictWatermarked means Record holds a CRC-valid payload.
	VerdictWatermarked AuditVerdict = iota
	// VerdictNoWatermark means no scale produced a valid payload.
	// Record is the zero value; Confidence and Scale describe the
	// best-confidence invalid attempt observed.
	VerdictNoWatermark
)

func (v AuditVerdict) String() string {
	switch v {
	case VerdictWatermarked:
		return "watermarked"
	case VerdictNoWatermark:
		return "no_watermark"
	default:
		return "unknown"
	}
}

// AuditResult is the payload, confidence, scale used, and verdict
// returned by Audit (spec.md §4.H: `audit → {payload, confidence,
// scale_used}`; §6's audit record additionally carries `verdict`).
type AuditResult struct {
	Verdict    AuditVerdict
	Record     Record
	Confidence float64
	Scale      int
}

// Audit implements spec.md §4.H's audit entry point: multi-scale
// extraction of whatever record is embedded in img, with no assumption
// about whether it is a master or a distribution copy. Per spec.md §7,
// a decode failure at every scale is not an exception — the absence of a
// payload is a normal outcome, reported as VerdictNoWatermark with the
// best confidence observed rather than returned as an error.
func (c *Codec) Audit(img image.Image) (*AuditResult, error) {
	rec, conf, scale, err := ExtractMultiScale(img, c.key, c.strict)
	if err != nil {
		c.log.Infof("audit: no watermark found (best confidence %.4f at scale %d): %v", conf, scale, err)
		return &AuditResult{Verdict: VerdictNoWatermark, Confidence: conf, Scale: scale}, nil
	}
	return &AuditResult{Verdict: VerdictWatermarked, Record: *rec, Confidence: conf, Scale: scale}, nil
}

// BatchAuditItem pairs an image with a caller-supplied label (e.g. a
// filename) for BatchAudit's result reporting.
type BatchAuditItem struct {
	Label string
	Image image.Image
}

// BatchAuditOutcome is one item's audit result or error.
type BatchAuditOutcome struct {
	Label  string
	Result *AuditResult
	Err    error
}

// BatchAudit implements the supplemented operation H.2
// (original_source's batch_audit): it runs Audit over every item
// concurrently, bounded by maxWorkers, and returns one outcome per item
// in input order. A per-item failure never aborts the batch; it is
// reported in that item's Err field. Canceling ctx stops launching new
// work: items not yet started carry ctx.Err(), while audits already
// running complete and report their own result.
func (c *Codec) BatchAudit(ctx context.Context, items []BatchAuditItem, maxWorkers int) []BatchAuditOutcome {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	outcomes := make([]BatchAuditOutcome, len(items))
	sem := make(chan struct{}, maxWorkers)
	done := make(chan int, len(items))

	for i, item := range items {
		i, item := i, item
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			outcomes[i] = BatchAuditOutcome{Label: item.Label, Err: ctx.Err()}
			done <- i
			continue
		}
		go func() {
			defer func() { <-sem }()
			res, err := c.Audit(item.Image)
			outcomes[i] = BatchAuditOutcome{Label: item.Label, Result: res, Err: err}
			done <- i
		}()
	}

	for range items {
		<-done
	}
	return outcomes
}
