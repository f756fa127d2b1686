package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cloudconductor/orchestrator/pkg/types"
)

// GCloudProvider drives Google Compute Engine through the gcloud CLI and
// reaches created instances over SSH, matching the flag encoding and
// transport of the reference implementation this package generalizes.
type GCloudProvider struct {
	// SSHKeyPath is passed to ssh -i as given; no default is applied.
	SSHKeyPath string
	// SSHUser is the remote login name.
	SSHUser string
	// Pricing and instance-class lookups are injected rather than calling a
	// billing API directly, since neither is standardized across providers.
	Pricing      PricingTable
	InstanceType InstanceTypeSelector

	// runCommand executes a shell command and captures its output; a field
	// rather than a direct exec.CommandContext call so tests can stub it.
	runCommand func(ctx context.Context, shell string) (stdout, stderr string, err error)

	// describeInstance is injected the same way, since gcloud's JSON
	// instance description format is itself a third-party API surface.
	describeInstance func(ctx context.Context, name, zone string) (types.InstanceDescription, error)
}

// PricingTable resolves the cents/hour for a given instance shape.
type PricingTable interface {
	Price(ctx context.Context, shape types.InstanceShape, instanceType string) (float64, error)
}

// InstanceTypeSelector resolves the requested cpu/mem to a concrete
// instance-type string and the cpu/mem it will actually bill for.
type InstanceTypeSelector interface {
	Select(ctx context.Context, cpus, memGB int, zone string, preemptible bool) (adjCPUs, adjMemGB int, instanceType string, err error)
}

// NewGCloudProvider builds a GCloudProvider that shells out to the real
// gcloud binary for describe/create/destroy and to ssh for RunRemote. A nil
// pricing or instanceType falls back to DefaultPricingTable/
// DefaultInstanceTypeSelector rather than leaving a nil interface behind —
// every Processor.Create dials OptimalInstanceType, so a nil
// InstanceTypeSelector would panic on the very first node of any real run.
func NewGCloudProvider(sshKeyPath, sshUser string, pricing PricingTable, instanceType InstanceTypeSelector) *GCloudProvider {
	if pricing == nil {
		pricing = DefaultPricingTable{}
	}
	if instanceType == nil {
		instanceType = DefaultInstanceTypeSelector{}
	}
	p := &GCloudProvider{
		SSHKeyPath:   sshKeyPath,
		SSHUser:      sshUser,
		Pricing:      pricing,
		InstanceType: instanceType,
	}
	p.runCommand = execShell
	p.describeInstance = p.describeViaGCloud
	return p
}

func execShell(ctx context.Context, shell string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "bash", "-c", shell)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// gcloudInstanceJSON is the subset of `gcloud compute instances describe
// --format=json`'s output this provider reads, matching the fields
// GoogleCloudHelper.describe pulls out in the reference implementation.
type gcloudInstanceJSON struct {
	Status            string `json:"status"`
	NetworkInterfaces []struct {
		AccessConfigs []struct {
			NatIP string `json:"natIP"`
		} `json:"accessConfigs"`
	} `json:"networkInterfaces"`
}

func (p *GCloudProvider) describeViaGCloud(ctx context.Context, name, zone string) (types.InstanceDescription, error) {
	cmd := fmt.Sprintf("gcloud compute instances describe %s --zone %s --format=json", name, zone)
	stdout, stderr, err := p.runCommand(ctx, cmd)
	if err != nil {
		if strings.Contains(stderr, "was not found") || strings.Contains(stderr, "NOT_FOUND") {
			return types.InstanceDescription{}, ErrNotFound
		}
		return types.InstanceDescription{}, fmt.Errorf("provider: describe %s: %w: %s", name, err, stderr)
	}

	var data gcloudInstanceJSON
	if err := json.Unmarshal([]byte(stdout), &data); err != nil {
		return types.InstanceDescription{}, fmt.Errorf("provider: parse describe output for %s: %w", name, err)
	}

	var ip string
	if len(data.NetworkInterfaces) > 0 && len(data.NetworkInterfaces[0].AccessConfigs) > 0 {
		ip = data.NetworkInterfaces[0].AccessConfigs[0].NatIP
	}

	switch types.ProviderStatus(data.Status) {
	case types.ProviderTerminated, types.ProviderStopping, types.ProviderProvisioning,
		types.ProviderStaging, types.ProviderRunning:
		return types.InstanceDescription{Status: types.ProviderStatus(data.Status), IP: ip}, nil
	default:
		return types.InstanceDescription{}, fmt.Errorf("%w: %q", ErrUnknownStatus, data.Status)
	}
}

func (p *GCloudProvider) Describe(ctx context.Context, name, zone string) (types.InstanceDescription, error) {
	return p.describeInstance(ctx, name, zone)
}

func (p *GCloudProvider) Price(ctx context.Context, shape types.InstanceShape, instanceType string) (float64, error) {
	return p.Pricing.Price(ctx, shape, instanceType)
}

func (p *GCloudProvider) OptimalInstanceType(ctx context.Context, cpus, memGB int, zone string, preemptible bool) (int, int, string, error) {
	return p.InstanceType.Select(ctx, cpus, memGB, zone, preemptible)
}

// Create shells out the gcloud create command, encoding flags in the same
// order as the reference provider: zone, preemptible, image, boot disk
// size/type, local SSDs, scopes, service account, then either custom-cpu
// and custom-memory or a fixed machine type.
func (p *GCloudProvider) Create(ctx context.Context, name string, shape types.InstanceShape, instanceType string) (string, string, error) {
	cmd := buildCreateCommand(name, shape, instanceType)
	return p.runCommand(ctx, cmd)
}

func buildCreateCommand(name string, shape types.InstanceShape, instanceType string) string {
	var args []string
	args = append(args, fmt.Sprintf("gcloud compute instances create %s", name))

	args = append(args, "--zone", shape.Zone)

	if shape.Preemptible {
		args = append(args, "--preemptible")
	}

	args = append(args, "--image", shape.Image)

	args = append(args, "--boot-disk-size")
	if shape.DiskGB >= 10240 {
		args = append(args, fmt.Sprintf("%dTB", int(math.Ceil(float64(shape.DiskGB)/1024.0))))
	} else {
		args = append(args, fmt.Sprintf("%dGB", shape.DiskGB))
	}

	args = append(args, "--boot-disk-type")
	if shape.BootDiskSSD {
		args = append(args, "pd-ssd")
	} else {
		args = append(args, "pd-standard")
	}

	for i := 0; i < shape.LocalSSDCount; i++ {
		args = append(args, "--local-ssd interface=scsi")
	}

	args = append(args, "--scopes", "cloud-platform")
	args = append(args, "--service-account", shape.ServiceAccount)

	if strings.Contains(instanceType, "custom") {
		args = append(args, "--custom-cpu", strconv.Itoa(shape.CPUs))
		args = append(args, "--custom-memory", fmt.Sprintf("%dGB", shape.MemoryGB))
	} else {
		args = append(args, "--machine-type", instanceType)
	}

	return strings.Join(args, " ")
}

// Destroy shells out the gcloud delete command, piping "yes" into it to
// answer the confirmation prompt the way the reference provider does. The
// 2>/dev/null redirect applies to yes; gcloud's own stderr is still
// captured and returned.
func (p *GCloudProvider) Destroy(ctx context.Context, name, zone string) (string, string, error) {
	cmd := buildDestroyCommand(name, zone)
	return p.runCommand(ctx, cmd)
}

func buildDestroyCommand(name, zone string) string {
	args := []string{
		"yes", "2>/dev/null", "|",
		fmt.Sprintf("gcloud compute instances delete %s", name),
		"--zone", zone,
	}
	return strings.Join(args, " ")
}

// RunRemote wraps cmd in an ssh invocation and executes it, escaping single
// quotes the way the reference adapt_cmd does so the remote shell sees the
// command as one argument.
func (p *GCloudProvider) RunRemote(ctx context.Context, ip, cmd string) (string, string, error) {
	wrapped := adaptCmd(p.SSHKeyPath, p.SSHUser, ip, cmd)
	return p.runCommand(ctx, wrapped)
}

func adaptCmd(keyPath, user, ip, cmd string) string {
	escaped := strings.ReplaceAll(cmd, "'", `'"'"'`)
	return fmt.Sprintf("ssh -i %s -o CheckHostIP=no -o StrictHostKeyChecking=no %s@%s -- '%s'",
		keyPath, user, ip, escaped)
}
