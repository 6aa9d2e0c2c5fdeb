/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package rostermodel

// MutationResult is the outcome of a subscription state change.
type MutationResult int

const (
	// OK means the item was changed.
	OK MutationResult = iota

	// IllegalArgument means the requested change is not a valid operand.
	IllegalArgument

	// AlreadySet means the item already held the requested state.
	AlreadySet

	// Failed means the change conflicts with the current state.
	Failed
)

// String satisfies fmt.Stringer interface.
func (r MutationResult) String() string {
	switch r {
	case OK:
		return "ok"
	case IllegalArgument:
		return "illegal-argument"
	case AlreadySet:
		return "already-set"
	case Failed:
		return "failed"
	}
	return ""
}

// AddSubscription grants direction sub (SubscriptionTo or SubscriptionFrom)
// to item, clearing the matching pending request.
func AddSubscription(item *Item, sub Subscription) MutationResult {
	switch sub {
	case SubscriptionTo:
		if item.HasTo() {
			return AlreadySet
		}
		if item.Subscription == SubscriptionFrom {
			item.Subscription = SubscriptionBoth
		} else {
			item.Subscription = SubscriptionTo
		}
		item.Ask = pendingAsk(false, item.PendingIn())
		return OK

	case SubscriptionFrom:
		if item.HasFrom() {
			return AlreadySet
		}
		if item.Subscription == SubscriptionTo {
			item.Subscription = SubscriptionBoth
		} else {
			item.Subscription = SubscriptionFrom
		}
		item.Ask = pendingAsk(item.PendingOut(), false)
		return OK
	}
	return IllegalArgument
}

// RemoveSubscription revokes direction sub (SubscriptionTo or SubscriptionFrom)
// from item. Revoking a direction not yet granted cancels its pending request.
func RemoveSubscription(item *Item, sub Subscription) MutationResult {
	switch sub {
	case SubscriptionTo:
		if !item.HasTo() {
			if item.PendingOut() {
				item.Ask = pendingAsk(false, item.PendingIn())
				return OK
			}
			return AlreadySet
		}
		if item.Subscription == SubscriptionBoth {
			item.Subscription = SubscriptionFrom
		} else {
			item.Subscription = SubscriptionNone
		}
		return OK

	case SubscriptionFrom:
		if !item.HasFrom() {
			if item.PendingIn() {
				item.Ask = pendingAsk(item.PendingOut(), false)
				return OK
			}
			return AlreadySet
		}
		if item.Subscription == SubscriptionBoth {
			item.Subscription = SubscriptionTo
		} else {
			item.Subscription = SubscriptionNone
		}
		return OK
	}
	return IllegalArgument
}

// AddAsk records a pending subscription request on item.
// A request pending in the opposite direction is kept.
func AddAsk(item *Item, ask Ask) MutationResult {
	switch ask {
	case AskSubscribe:
		if item.HasTo() {
			return AlreadySet
		}
		item.Ask = pendingAsk(true, item.PendingIn())
		return OK

	case AskSubscribed:
		if item.HasFrom() {
			return AlreadySet
		}
		if item.PendingIn() {
			return AlreadySet
		}
		item.Ask = pendingAsk(item.PendingOut(), true)
		return OK
	}
	return IllegalArgument
}

func pendingAsk(out, in bool) Ask {
	switch {
	case out && in:
		return AskBoth
	case out:
		return AskSubscribe
	case in:
		return AskSubscribed
	}
	return AskNone
}
