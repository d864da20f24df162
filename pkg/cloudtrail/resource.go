package cloudtrail

import (
	"trailview/pkg/record"
	"trailview/pkg/record/field"
)

// Resource is one entry of an event's resources list.
type Resource struct {
	store *record.Store
}

// NewResource wraps a sealed store as a Resource.
func NewResource(s *record.Store) Resource {
	return Resource{store: s}
}

// UnknownFields lists stored keys that have no accessor on Resource.
func (r Resource) UnknownFields() []field.Name {
	return field.ResourceFields.Unknown(r.store.Fields())
}

// Type is the resource type, e.g. AWS::S3::Bucket.
func (r Resource) Type() (string, bool, error) {
	return record.GetText(r.store, field.Type)
}

// ARN is the resource's Amazon Resource Name.
func (r Resource) ARN() (string, bool, error) {
	return record.GetText(r.store, field.ARN)
}

// AccountID is the account that owns the resource.
func (r Resource) AccountID() (string, bool, error) {
	return record.GetText(r.store, field.AccountID)
}
