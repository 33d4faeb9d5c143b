// Package model holds the persistent domain records shared by the
// fulfillment pipeline: print orders, their photos, and the owning users.
package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/snapkeep/printworks/pkg/collection"
)

// Service identifies the upstream photo service a photo came from. The set
// is closed: photos tagged with an unknown service are never printed.
type Service string

const (
	ServiceInstagram Service = "instagram"
	ServiceFacebook  Service = "facebook"
)

// KnownServices is the fixed iteration order for per-service photo groups.
var KnownServices = []Service{ServiceInstagram, ServiceFacebook}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusQueued     OrderStatus = "queued"
	StatusInProgress OrderStatus = "in_progress"
	StatusPrinted    OrderStatus = "printed"
	StatusFailed     OrderStatus = "failed"
)

// Order is one user's batch of photos due for printing in a period.
// It is mutated only by the pipeline run that claimed it.
type Order struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	UserID primitive.ObjectID `bson:"userId"`

	Photos []Photo `bson:"photos"`

	Status    OrderStatus `bson:"status"`
	IsPrinted bool        `bson:"isPrinted"`
	InQueue   bool        `bson:"inQueue"`

	// PackageURL is the public URL of the uploaded package, set once the
	// upload succeeds.
	PackageURL string `bson:"packageUrl,omitempty"`

	// Address is snapshotted from the user at order-acquisition time, not
	// live-joined, so a later address change cannot redirect an order
	// already in flight.
	Address Address `bson:"address"`

	Period    int       `bson:"period"`
	StartDate time.Time `bson:"startDate"`
	EndDate   time.Time `bson:"endDate"`
}

// PhotosByService groups the order's photos by their origin tag.
func (o *Order) PhotosByService() map[Service][]Photo {
	return collection.GroupBy(o.Photos, func(p Photo) Service { return p.Service })
}

// Photo is one source image reference within an order.
type Photo struct {
	// SourceURL is the full-resolution upstream image.
	SourceURL string `bson:"sourceUrl"`

	Width  int `bson:"width"`
	Height int `bson:"height"`

	// Service tags which upstream photo service this came from; a photo is
	// only eligible while the owning user still has that service linked.
	Service Service `bson:"service"`

	// Product is the requested print-format code (e.g. "6x4", "square").
	Product string `bson:"product"`

	// IsOwner is true for the account holder's own photos, false for
	// photos shared by friends. Analytics only.
	IsOwner bool `bson:"isOwner"`
}

// User owns orders and carries the billing and delivery identity.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	FirstName string             `bson:"firstName"`
	LastName  string             `bson:"lastName"`

	Address Address `bson:"address"`

	Active         bool `bson:"active"`
	SignupComplete bool `bson:"signupComplete"`

	// Services holds the per-service connection flags. A photo group is
	// eligible only while its service is linked.
	Services map[Service]bool `bson:"services"`

	// Plan is the billing plan identifier (e.g. "PAYG", "VALUE100").
	Plan string `bson:"plan"`

	// BillingCustomerID is the payment gateway customer this user's
	// invoice items are filed against.
	BillingCustomerID string `bson:"billingCustomerId"`
}

// HasService reports whether the user still has the given photo service
// linked.
func (u *User) HasService(s Service) bool {
	return u.Services[s]
}

// Address is a postal shipping address.
type Address struct {
	Line1    string `bson:"line1"`
	Line2    string `bson:"line2,omitempty"`
	Suburb   string `bson:"suburb"`
	State    string `bson:"state"`
	Postcode string `bson:"postcode"`
	Country  string `bson:"country"`
}

// Lines returns the non-empty address lines in display order.
func (a Address) Lines() []string {
	lines := []string{strings.TrimSpace(a.Line1)}
	if l2 := strings.TrimSpace(a.Line2); l2 != "" {
		lines = append(lines, l2)
	}
	lines = append(lines,
		strings.TrimSpace(a.Suburb),
		strings.TrimSpace(a.State)+", "+strings.TrimSpace(a.Postcode),
		strings.TrimSpace(a.Country),
	)
	return lines
}
