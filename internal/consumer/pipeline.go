package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/internal/billing"
	"github.com/snapkeep/printworks/internal/delivery"
	"github.com/snapkeep/printworks/internal/imaging"
	"github.com/snapkeep/printworks/internal/model"
	"github.com/snapkeep/printworks/internal/packaging"
	"github.com/snapkeep/printworks/internal/store"
	"github.com/snapkeep/printworks/internal/tracking"
	"github.com/snapkeep/printworks/pkg/storage"
)

// Pipeline is the per-order state machine: load, acquire, package, upload,
// deliver, bill, finalize — with one guaranteed finalizer that persists the
// order's terminal state and removes every local artifact on every exit
// path.
type Pipeline struct {
	orders     store.OrderStore
	users      store.UserStore
	acquirer   *imaging.Acquirer
	assembler  *packaging.Assembler
	disk       storage.Disk
	dispatcher *delivery.Dispatcher
	billing    *billing.Service
	tracker    *tracking.Manager

	s3Folder       string
	tempRoot       string
	billingEnabled bool
	requireSignup  bool

	log *slog.Logger
}

// Deps bundles the pipeline's collaborators.
type Deps struct {
	Orders     store.OrderStore
	Users      store.UserStore
	Acquirer   *imaging.Acquirer
	Assembler  *packaging.Assembler
	Disk       storage.Disk
	Dispatcher *delivery.Dispatcher
	Billing    *billing.Service
	Tracker    *tracking.Manager
	Log        *slog.Logger
}

// NewPipeline wires a pipeline from configuration and collaborators.
func NewPipeline(cfg *config.Config, deps Deps) *Pipeline {
	return &Pipeline{
		orders:     deps.Orders,
		users:      deps.Users,
		acquirer:   deps.Acquirer,
		assembler:  deps.Assembler,
		disk:       deps.Disk,
		dispatcher: deps.Dispatcher,
		billing:    deps.Billing,
		tracker:    deps.Tracker,

		s3Folder:       cfg.S3.Folder,
		tempRoot:       cfg.TempDir,
		billingEnabled: cfg.Billing.Enabled,
		requireSignup:  cfg.RequireSignupComplete,

		log: deps.Log,
	}
}

// Process runs one order through the full pipeline. Delivery is
// at-least-once: Process may be re-invoked for an order that already
// completed, so an order marked printed is skipped without re-running any
// side effect.
func (p *Pipeline) Process(ctx context.Context, orderID string) (err error) {
	log := p.log.With("order", orderID)
	log.Info("processing order")

	order, ferr := p.loadOrder(ctx, orderID)
	if ferr != nil {
		return ferr
	}

	if order.IsPrinted {
		// Redelivered message for a completed order. Re-running would
		// double-upload, double-email and double-bill.
		log.Warn("order already printed, skipping")
		OrdersProcessed.WithLabelValues("skipped").Inc()
		return nil
	}

	var tempDir string
	defer func() {
		p.cleanup(ctx, order, tempDir, err)
	}()

	// Claim: persist the in-progress state before doing any work.
	order.Status = model.StatusInProgress
	if serr := p.orders.Save(ctx, order); serr != nil {
		return fail(StageOrderLoaded, KindTransient, serr)
	}

	user, ferr := p.loadUser(ctx, order)
	if ferr != nil {
		return ferr
	}
	log = log.With("user", user.Username)

	// Snapshot the shipping address if order acquisition didn't.
	if order.Address == (model.Address{}) {
		order.Address = user.Address
	}

	tempDir = filepath.Join(p.tempRoot, "printworks-"+orderID+"-"+uuid.NewString())

	images, aerr := p.acquirer.Acquire(ctx, user, order, tempDir)
	if aerr != nil {
		return fail(StageImagesAcquired, KindTransient, aerr)
	}
	PhotosAcquired.Observe(float64(len(images)))

	if len(images) == 0 {
		// Printed-without-package: a normal terminal path, not an error.
		// Upload, delivery and billing are all skipped.
		log.Info("no eligible photos, finalizing without package")
		order.IsPrinted = true
		order.Status = model.StatusPrinted
		OrdersProcessed.WithLabelValues("printed").Inc()
		return nil
	}

	zipPath, perr := p.assembler.Assemble(tempDir, user, order, images)
	if perr != nil {
		return fail(StagePackaged, KindTransient, perr)
	}

	if uerr := p.upload(order, user, zipPath); uerr != nil {
		return fail(StageUploaded, KindTransient, uerr)
	}
	log.Info("package uploaded", "url", order.PackageURL)

	if _, derr := p.dispatcher.Dispatch(ctx, user, order, zipPath); derr != nil {
		return fail(StageDelivered, KindChannel, derr)
	}

	// Physical fulfillment is complete; everything after this point must
	// not undo it.
	order.IsPrinted = true
	order.Status = model.StatusPrinted

	p.tracker.TrackShipped(ctx, user, order)

	if p.billingEnabled {
		info := p.billing.Invoice(ctx, user, len(images))
		if info.Status != billing.StatusSkipped {
			p.tracker.TrackInvoiced(ctx, user, info)
		}
	}

	log.Info("order finalized", "photos", len(images))
	OrdersProcessed.WithLabelValues("printed").Inc()
	return nil
}

func (p *Pipeline) loadOrder(ctx context.Context, orderID string) (*model.Order, *FulfillmentError) {
	order, err := p.orders.FindByID(ctx, orderID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fail(StageOrderLoaded, KindNotFound, err)
		}
		return nil, fail(StageOrderLoaded, KindTransient, err)
	}
	return order, nil
}

func (p *Pipeline) loadUser(ctx context.Context, order *model.Order) (*model.User, *FulfillmentError) {
	user, err := p.users.FindByID(ctx, order.UserID.Hex())
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fail(StageUserLoaded, KindNotFound, err)
		}
		return nil, fail(StageUserLoaded, KindTransient, err)
	}

	if !user.Active || (p.requireSignup && !user.SignupComplete) {
		return nil, fail(StageUserLoaded, KindIneligible,
			fmt.Errorf("user %s is not eligible for printing", user.Username))
	}
	return user, nil
}

// upload stores the package under a deterministic, globally unique key so
// concurrent orders can never collide on a storage path.
func (p *Pipeline) upload(order *model.Order, user *model.User, zipPath string) error {
	f, err := os.Open(zipPath)
	if err != nil {
		return fmt.Errorf("open package: %w", err)
	}
	defer f.Close()

	key := p.s3Folder + "/" + user.Username + "/" + packaging.PackageName(user, order) + ".zip"
	if err := p.disk.PutStream(key, f); err != nil {
		return err
	}
	order.PackageURL = p.disk.URL(key)
	return nil
}

// cleanup is the single guaranteed finalizer. Its actions are independent:
// one failing never blocks the others, and its own errors are logged only
// so they can never mask the run's root error.
func (p *Pipeline) cleanup(ctx context.Context, order *model.Order, tempDir string, runErr error) {
	// The run may have failed on a cancelled context; cleanup still has
	// to persist and delete.
	ctx = context.WithoutCancel(ctx)

	if order != nil {
		order.InQueue = false
		if runErr != nil && !order.IsPrinted {
			order.Status = model.StatusFailed
		}
		if err := p.orders.Save(ctx, order); err != nil {
			p.log.Error("cleanup: persist order failed", "order", order.ID.Hex(), "error", err)
		}
	}

	if tempDir != "" {
		if err := os.RemoveAll(tempDir); err != nil {
			p.log.Error("cleanup: remove temp dir failed", "dir", tempDir, "error", err)
		}
	}
}
