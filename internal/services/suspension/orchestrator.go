package suspension

import (
	"context"
	"fmt"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/domain/models"
	"github.com/adiwena/netbilling/internal/domain/ports"
	"github.com/adiwena/netbilling/pkg/observability"
)

// TR-069 WAN connection objects toggled on the CPE. Both are switched
// together: the PPP object carries the session, the IP object covers
// bridged deployments.
const (
	wanPPPEnablePath = "InternetGatewayDevice.WANDevice.1.WANConnectionDevice.1.WANPPPConnection.1.Enable"
	wanIPEnablePath  = "InternetGatewayDevice.WANDevice.1.WANConnectionDevice.1.WANIPConnection.1.Enable"

	// Rate limit applied when the sentinel suspension profile is auto-created
	suspendedRateLimit = "128k/128k"
)

// BackendResult is the outcome of one backend within a Suspend/Restore call.
// Attempted is false when the customer has no identity for that backend.
// A lookup miss leaves OK false with a nil Err: a skip, not a failure.
type BackendResult struct {
	Attempted bool
	OK        bool
	Err       error
}

// OutcomeSet aggregates the per-backend results of one Suspend or Restore.
//
// Success is true when at least one attempted network backend (router or
// device) succeeded. The ledger write is always attempted but does not count
// toward Success: billing status reflects billing truth and is kept out of
// the network-side success predicate.
type OutcomeSet struct {
	Router  BackendResult
	Device  BackendResult
	Ledger  BackendResult
	Success bool
}

// Orchestrator suspends or restores one customer across the router, the
// device management plane and the billing ledger, with per-backend failure
// isolation. It never returns an error: every path yields an OutcomeSet.
type Orchestrator struct {
	router    ports.RouterControlPlane
	device    ports.DeviceControlPlane
	customers ports.CustomerRepository
	packages  ports.PackageRepository
	settings  ports.SettingsStore
	notifier  ports.Notifier
	logger    ports.Logger
}

// NewOrchestrator creates a new suspension orchestrator
func NewOrchestrator(
	router ports.RouterControlPlane,
	device ports.DeviceControlPlane,
	customers ports.CustomerRepository,
	packages ports.PackageRepository,
	settings ports.SettingsStore,
	notifier ports.Notifier,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		router:    router,
		device:    device,
		customers: customers,
		packages:  packages,
		settings:  settings,
		notifier:  notifier,
		logger:    logger,
	}
}

// Suspend cuts a customer's network access and marks them suspended in the
// ledger. Steps run in order but no step blocks on another's success.
// Calling Suspend on an already-suspended customer re-applies the same
// target state and is safe.
func (o *Orchestrator) Suspend(ctx context.Context, customer *models.Customer, reason string) OutcomeSet {
	var out OutcomeSet

	if customer.HasRouterIdentity() {
		out.Router = o.suspendRouter(ctx, customer, reason)
	}
	if customer.Phone != "" || customer.HasRouterIdentity() {
		out.Device = o.setDeviceWAN(ctx, customer, false)
	}

	// Status reflects billing truth, not network truth: written regardless of
	// how the network backends fared.
	out.Ledger = o.writeStatus(ctx, customer, models.CustomerSuspended)

	out.Success = (out.Router.Attempted && out.Router.OK) || (out.Device.Attempted && out.Device.OK)

	o.notify(ctx, customer, ports.TemplateServiceSuspended, map[string]string{
		"name":   customer.Name,
		"reason": reason,
	})

	observability.RecordServiceAction("suspend", out.Success)
	o.logger.Info("suspend completed",
		ports.String("customer", customer.Username),
		ports.String("reason", reason),
		ports.Bool("router_ok", out.Router.OK),
		ports.Bool("device_ok", out.Device.OK),
		ports.Bool("ledger_ok", out.Ledger.OK),
		ports.Bool("success", out.Success))

	return out
}

// Restore reverses a suspension: the secret returns to its resolved profile
// (customer override, then package default, then global default), sessions
// are dropped to force a reconnect under the new profile, both WAN objects
// are re-enabled and the customer is marked active.
func (o *Orchestrator) Restore(ctx context.Context, customer *models.Customer, reason string) OutcomeSet {
	var out OutcomeSet

	if customer.HasRouterIdentity() {
		profile := o.resolveRestoreProfile(ctx, customer)
		out.Router = o.switchSecretProfile(ctx, customer, profile, "restored: "+reason)
	}
	if customer.Phone != "" || customer.HasRouterIdentity() {
		out.Device = o.setDeviceWAN(ctx, customer, true)
	}

	out.Ledger = o.writeStatus(ctx, customer, models.CustomerActive)

	out.Success = (out.Router.Attempted && out.Router.OK) || (out.Device.Attempted && out.Device.OK)

	o.notify(ctx, customer, ports.TemplateServiceRestored, map[string]string{
		"name":   customer.Name,
		"reason": reason,
	})

	observability.RecordServiceAction("restore", out.Success)
	o.logger.Info("restore completed",
		ports.String("customer", customer.Username),
		ports.Bool("router_ok", out.Router.OK),
		ports.Bool("device_ok", out.Device.OK),
		ports.Bool("ledger_ok", out.Ledger.OK),
		ports.Bool("success", out.Success))

	return out
}

// suspendRouter resolves the suspension profile, makes sure it exists and
// rebinds the customer's secret to it.
func (o *Orchestrator) suspendRouter(ctx context.Context, customer *models.Customer, reason string) BackendResult {
	profile := o.settings.GetString(ports.KeySuspensionProfile, ports.DefaultSuspensionProfile)

	if !o.ensureSuspensionProfile(ctx, profile) {
		return BackendResult{Attempted: true}
	}
	return o.switchSecretProfile(ctx, customer, profile, "suspended: "+reason)
}

// ensureSuspensionProfile verifies the profile exists on the router.
// Only the sentinel default name is ever auto-created; any other configured
// name must pre-exist or the router step is skipped with a warning.
func (o *Orchestrator) ensureSuspensionProfile(ctx context.Context, profile string) bool {
	_, err := o.router.FindProfile(ctx, profile)
	if err == nil {
		return true
	}
	if !domain.IsNotFoundError(err) {
		o.logger.Error("profile lookup failed", ports.String("profile", profile), ports.Err(err))
		return false
	}
	if profile != ports.DefaultSuspensionProfile {
		o.logger.Warn("configured suspension profile does not exist on router, skipping router step",
			ports.String("profile", profile))
		return false
	}
	if err := o.router.CreateProfile(ctx, ports.ProfileSpec{
		Name:      profile,
		RateLimit: suspendedRateLimit,
		Comment:   "auto-created suspension profile",
	}); err != nil {
		o.logger.Error("create suspension profile failed", ports.String("profile", profile), ports.Err(err))
		return false
	}
	o.logger.Info("created suspension profile", ports.String("profile", profile))
	return true
}

// switchSecretProfile rebinds the customer's PPPoE secret to a profile and
// drops any live sessions so the change takes effect immediately.
// The secret is addressed by router identifier when one resolves; the
// identifier is unambiguous where names may transiently collide.
func (o *Orchestrator) switchSecretProfile(ctx context.Context, customer *models.Customer, profile, comment string) BackendResult {
	res := BackendResult{Attempted: true}

	target := customer.PPPoEUsername
	id, err := o.router.FindSecretByName(ctx, customer.PPPoEUsername)
	switch {
	case err == nil && id != "":
		target = id
	case domain.IsNotFoundError(err):
		o.logger.Warn("pppoe secret not found on router, skipping router step",
			ports.String("customer", customer.Username),
			ports.String("pppoe_username", customer.PPPoEUsername))
		return res
	case err != nil:
		res.Err = fmt.Errorf("find secret: %w", err)
		o.logger.Error("router secret lookup failed", ports.String("customer", customer.Username), ports.Err(err))
		return res
	}

	if err := o.router.SetSecretProfile(ctx, target, profile, comment); err != nil {
		res.Err = fmt.Errorf("set secret profile: %w", err)
		o.logger.Error("router profile switch failed",
			ports.String("customer", customer.Username),
			ports.String("profile", profile),
			ports.Err(err))
		return res
	}

	sessions, err := o.router.ListActiveSessions(ctx, customer.PPPoEUsername)
	if err != nil {
		res.Err = fmt.Errorf("list active sessions: %w", err)
		o.logger.Error("session listing failed", ports.String("customer", customer.Username), ports.Err(err))
		return res
	}
	for _, session := range sessions {
		if err := o.router.DropSession(ctx, session); err != nil {
			res.Err = fmt.Errorf("drop session %s: %w", session, err)
			o.logger.Error("session drop failed",
				ports.String("customer", customer.Username),
				ports.String("session_id", session),
				ports.Err(err))
			return res
		}
	}

	res.OK = true
	return res
}

// setDeviceWAN resolves the customer's CPE (phone tag first, PPPoE username
// as fallback) and toggles both WAN connection objects.
func (o *Orchestrator) setDeviceWAN(ctx context.Context, customer *models.Customer, enabled bool) BackendResult {
	res := BackendResult{Attempted: true}

	device, err := o.findDevice(ctx, customer)
	if err != nil {
		if domain.IsNotFoundError(err) {
			o.logger.Warn("no managed device found for customer, skipping device step",
				ports.String("customer", customer.Username))
			return res
		}
		res.Err = fmt.Errorf("find device: %w", err)
		o.logger.Error("device lookup failed", ports.String("customer", customer.Username), ports.Err(err))
		return res
	}

	params := []ports.ParameterValue{
		{Path: wanPPPEnablePath, Value: enabled, Type: "xsd:boolean"},
		{Path: wanIPEnablePath, Value: enabled, Type: "xsd:boolean"},
	}
	if err := o.device.SetParameters(ctx, device.ID, params); err != nil {
		res.Err = fmt.Errorf("set wan parameters: %w", err)
		o.logger.Error("device parameter write failed",
			ports.String("customer", customer.Username),
			ports.String("device_id", device.ID),
			ports.Bool("enabled", enabled),
			ports.Err(err))
		return res
	}

	res.OK = true
	return res
}

func (o *Orchestrator) findDevice(ctx context.Context, customer *models.Customer) (*ports.Device, error) {
	if customer.Phone != "" {
		device, err := o.device.FindDeviceByPhone(ctx, customer.Phone)
		if err == nil {
			return device, nil
		}
		if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	if customer.PPPoEUsername != "" {
		return o.device.FindDeviceByPPPoE(ctx, customer.PPPoEUsername)
	}
	return nil, domain.ErrNotFound
}

// writeStatus records the billing status. A failure here is logged but never
// blocks the network backends; a later sweep reconciles the divergence.
func (o *Orchestrator) writeStatus(ctx context.Context, customer *models.Customer, status models.CustomerStatus) BackendResult {
	res := BackendResult{Attempted: true}
	if err := o.customers.UpdateStatus(ctx, customer.ID, status); err != nil {
		res.Err = fmt.Errorf("update customer status: %w", err)
		o.logger.Error("ledger status write failed",
			ports.String("customer", customer.Username),
			ports.String("status", string(status)),
			ports.Err(err))
		return res
	}
	customer.Status = status
	res.OK = true
	return res
}

// resolveRestoreProfile picks the profile a restored customer returns to:
// customer override, then package default, then the global default.
func (o *Orchestrator) resolveRestoreProfile(ctx context.Context, customer *models.Customer) string {
	if customer.PPPoEProfile != "" {
		return customer.PPPoEProfile
	}
	if customer.PackageID != nil {
		pkg, err := o.packages.GetByID(ctx, *customer.PackageID)
		if err != nil {
			o.logger.Warn("package lookup failed while resolving restore profile",
				ports.String("customer", customer.Username),
				ports.Err(err))
		} else if pkg.PPPoEProfile != "" {
			return pkg.PPPoEProfile
		}
	}
	return o.settings.GetString(ports.KeyDefaultRestoreProfile, ports.DefaultRestoreProfile)
}

// notify is best-effort: a failed delivery is logged and never affects the
// outcome of the call.
func (o *Orchestrator) notify(ctx context.Context, customer *models.Customer, templateKey string, data map[string]string) {
	if customer.Phone == "" {
		return
	}
	if ok := o.notifier.Notify(ctx, customer.Phone, templateKey, data); !ok {
		o.logger.Warn("notification delivery failed",
			ports.String("customer", customer.Username),
			ports.String("template", templateKey))
	}
}
