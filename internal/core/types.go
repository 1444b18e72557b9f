package core

import "communitycore/pkg/domain"

type (
	EntityType            = domain.EntityType
	Base                  = domain.Base
	GeoPoint              = domain.GeoPoint
	User                  = domain.User
	Organization          = domain.Organization
	Donation              = domain.Donation
	Request               = domain.Request
	Activity              = domain.Activity
	VolunteerRegistration = domain.VolunteerRegistration
	Match                 = domain.Match
	MatchTarget           = domain.MatchTarget
	ActivityFeedItem      = domain.ActivityFeedItem
	Payment               = domain.Payment
	Notification          = domain.Notification
	Change                = domain.Change
	Action                = domain.Action
	Violation             = domain.Violation
	Result                = domain.Result
	RulesEngine           = domain.RulesEngine
	RuleViolationError    = domain.RuleViolationError
	NotFoundError         = domain.NotFoundError
	DonationFilter        = domain.DonationFilter
	RequestFilter         = domain.RequestFilter
	ActivityFilter        = domain.ActivityFilter
	GeoFilter             = domain.GeoFilter
	Transaction           = domain.Transaction
	TransactionView       = domain.TransactionView
	PersistentStore       = domain.PersistentStore
)

const (
	EntityUser                  = domain.EntityUser
	EntityOrganization          = domain.EntityOrganization
	EntityDonation              = domain.EntityDonation
	EntityRequest               = domain.EntityRequest
	EntityActivity              = domain.EntityActivity
	EntityVolunteerRegistration = domain.EntityVolunteerRegistration
	EntityMatch                 = domain.EntityMatch
	EntityActivityFeedItem      = domain.EntityActivityFeedItem
	EntityPayment               = domain.EntityPayment
	EntityNotification          = domain.EntityNotification
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)
