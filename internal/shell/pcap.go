package shell

import (
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/gopatchy/artnode/artnet/wire"
)

// PcapNode feeds the same machine.State as Node's receiveLoop but reads
// raw frames off an interface instead of a bound UDP socket, grounded on
// gopatchy-artmap/artnet/receiver_pcap.go's BPF-filtered capture (useful
// when another process already holds port 6454, or to observe traffic
// between two other hosts for diagnostics).
type PcapNode struct {
	node   *Node
	handle *pcap.Handle
	done   chan struct{}
}

// NewPcapNode opens iface in promiscuous mode with a "udp port 6454" BPF
// filter and routes decoded packets into node.
func NewPcapNode(node *Node, iface string) (*PcapNode, error) {
	handle, err := pcap.OpenLive(iface, 1600, true, pcap.BlockForever)
	if err != nil {
		return nil, err
	}
	if err := handle.SetBPFFilter("udp port 6454"); err != nil {
		handle.Close()
		return nil, err
	}
	return &PcapNode{node: node, handle: handle, done: make(chan struct{})}, nil
}

// Start begins the capture loop in the background.
func (p *PcapNode) Start() {
	go p.receiveLoop()
}

// Stop closes the capture handle and ends the loop.
func (p *PcapNode) Stop() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	p.handle.Close()
}

func (p *PcapNode) receiveLoop() {
	source := gopacket.NewPacketSource(p.handle, p.handle.LinkType())
	for {
		select {
		case <-p.done:
			return
		case packet, ok := <-source.Packets():
			if !ok {
				return
			}
			p.handlePacket(packet)
		}
	}
}

func (p *PcapNode) handlePacket(packet gopacket.Packet) {
	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return
	}
	udp, ok := udpLayer.(*layers.UDP)
	if !ok {
		return
	}

	var srcIP net.IP
	if ipLayer := packet.Layer(layers.LayerTypeIPv4); ipLayer != nil {
		if ip, ok := ipLayer.(*layers.IPv4); ok {
			srcIP = ip.SrcIP
		}
	}

	data := udp.Payload
	if len(data) < 12 {
		return
	}

	pkt, err := wire.Decode(data)
	if err != nil {
		return
	}
	src := &net.UDPAddr{IP: srcIP, Port: int(udp.SrcPort)}
	p.node.handleDecoded(src, pkt, time.Now())
}
