package config

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// Allocation is one subnet carved out of the VPC block.
type Allocation struct {
	Name    string
	Role    string
	AZIndex int
	CIDR    string
}

// AllocateSubnets carves one block per (layout entry, availability zone) out of
// vpcCIDR. Blocks are assigned in declaration order, each aligned to its own
// size, so a /24 following three /28s starts at the next /24 boundary.
//
// Only IPv4 is supported.
func AllocateSubnets(vpcCIDR string, layout []SubnetLayout, azs int) ([]Allocation, error) {
	prefix, err := parseIPv4Prefix(vpcCIDR)
	if err != nil {
		return nil, err
	}

	start := ipv4ToUint(prefix.Addr())
	end := uint64(start) + blockSize(prefix.Bits())
	cursor := uint64(start)

	var out []Allocation
	for _, s := range layout {
		if s.CIDRMask < prefix.Bits() || s.CIDRMask > 32 {
			return nil, fmt.Errorf("subnet %s: mask /%d does not fit in %s", s.Name, s.CIDRMask, vpcCIDR)
		}
		size := blockSize(s.CIDRMask)
		for az := 0; az < azs; az++ {
			cursor = alignUp(cursor, size)
			if cursor+size > end {
				return nil, fmt.Errorf("subnet %s in zone %d: layout overflows %s", s.Name, az, vpcCIDR)
			}
			addr := uintToIPv4(uint32(cursor))
			out = append(out, Allocation{
				Name:    s.Name,
				Role:    s.Role,
				AZIndex: az,
				CIDR:    netip.PrefixFrom(addr, s.CIDRMask).String(),
			})
			cursor += size
		}
	}
	return out, nil
}

// CIDRContains reports whether inner lies entirely within outer.
func CIDRContains(outer, inner string) (bool, error) {
	o, err := parseIPv4Prefix(outer)
	if err != nil {
		return false, err
	}
	i, err := parseIPv4Prefix(inner)
	if err != nil {
		return false, err
	}
	return i.Bits() >= o.Bits() && o.Contains(i.Addr()), nil
}

func parseIPv4Prefix(cidr string) (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	if !prefix.Addr().Is4() {
		return netip.Prefix{}, fmt.Errorf("only IPv4 CIDRs are supported, got %s", cidr)
	}
	return prefix.Masked(), nil
}

func blockSize(bits int) uint64 {
	return uint64(1) << (32 - bits)
}

func alignUp(v, size uint64) uint64 {
	return (v + size - 1) / size * size
}

func ipv4ToUint(addr netip.Addr) uint32 {
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:])
}

func uintToIPv4(v uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}
