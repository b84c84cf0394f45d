// Ajo-Admin is a management backend for Ajo rotating savings groups (ROSCAs).
// Members contribute a fixed amount on a weekly or monthly cadence and take
// turns receiving the pooled payout, in an order given by each member's
// payment position.
package main
