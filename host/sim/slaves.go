package sim

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"tinygo.org/x/drivers/ds3231"
	"tinygo.org/x/drivers/tester"
)

// PanicFailer reports misuse of a register device by panicking. Tests pass
// their *testing.T instead.
type PanicFailer struct{}

func (PanicFailer) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

// RegisterSlave exposes a tester.I2CDevice8 register file with the usual
// pointer protocol: the first byte of a write sets the register pointer,
// later bytes are stored with auto-increment and reads continue from the
// pointer.
type RegisterSlave struct {
	Device *tester.I2CDevice8

	ptr    uint8
	gotPtr bool
}

// NewRegisterSlave returns a register device at addr
func NewRegisterSlave(f tester.Failer, addr uint8) *RegisterSlave {
	return &RegisterSlave{Device: tester.NewI2CDevice8(f, addr)}
}

func (r *RegisterSlave) Address() uint8 {
	return r.Device.Addr()
}

func (r *RegisterSlave) Begin(read bool) bool {
	if r.Device.Err != nil {
		return false
	}
	if !read {
		r.gotPtr = false
	}
	return true
}

func (r *RegisterSlave) Receive(b byte) bool {
	if !r.gotPtr {
		r.ptr = b
		r.gotPtr = true
		return true
	}
	if err := r.Device.Tx([]byte{r.ptr, b}, nil); err != nil {
		return false
	}
	r.ptr++
	return true
}

func (r *RegisterSlave) Transmit() byte {
	buf := []byte{0xFF}
	if err := r.Device.Tx([]byte{r.ptr}, buf); err != nil {
		return 0xFF
	}
	r.ptr++
	return buf[0]
}

func (r *RegisterSlave) End() {}

// DS3231 is a register slave whose time registers follow a clock. Reads
// see the time elapsed since the last time write.
type DS3231 struct {
	RegisterSlave

	clock   clockwork.Clock
	epoch   time.Time // time of day at base
	base    time.Time // clock reading when epoch was set
	touched bool      // time registers written in this transaction
}

// NewDS3231 returns a running clock showing now. A clock that lost power
// has the oscillator-stop flag set.
func NewDS3231(f tester.Failer, clock clockwork.Clock, now time.Time, lostPower bool) *DS3231 {
	d := &DS3231{
		RegisterSlave: *NewRegisterSlave(f, ds3231.Address),
		clock:         clock,
	}
	d.SetTime(now)
	if lostPower {
		d.Device.Registers[ds3231.REG_STATUS] |= 1 << ds3231.OSF
	}
	d.SetTemperature(25.0)
	return d
}

// SetTime sets the time the clock counts from
func (d *DS3231) SetTime(now time.Time) {
	d.epoch = now
	d.base = d.clock.Now()
	d.sync()
}

// Now returns the clock's current time
func (d *DS3231) Now() time.Time {
	return d.epoch.Add(d.clock.Since(d.base))
}

// SetTemperature loads the temperature registers, 0.25 degree resolution
func (d *DS3231) SetTemperature(celsius float64) {
	q := int16(celsius * 4)
	d.Device.Registers[ds3231.REG_TEMP] = byte(int8(q >> 2))
	d.Device.Registers[ds3231.REG_TEMP+1] = byte(q&0x03) << 6
}

func (d *DS3231) Begin(read bool) bool {
	if read {
		d.sync()
	}
	return d.RegisterSlave.Begin(read)
}

func (d *DS3231) Receive(b byte) bool {
	reg, data := d.ptr, d.gotPtr
	ok := d.RegisterSlave.Receive(b)
	if ok && data && reg <= 6 {
		d.touched = true
	}
	return ok
}

// End latches written time registers as the new epoch
func (d *DS3231) End() {
	if !d.touched {
		return
	}
	d.touched = false
	regs := &d.Device.Registers
	now := d.Now()
	d.epoch = time.Date(now.Year(), now.Month(), now.Day(),
		int(fromBCD(regs[2]&0x3F)), int(fromBCD(regs[1]&0x7F)), int(fromBCD(regs[0]&0x7F)),
		0, time.UTC)
	d.base = d.clock.Now()
}

func (d *DS3231) sync() {
	now := d.Now()
	regs := &d.Device.Registers
	regs[0] = toBCD(uint8(now.Second()))
	regs[1] = toBCD(uint8(now.Minute()))
	regs[2] = toBCD(uint8(now.Hour()))
	regs[3] = toBCD(uint8(now.Weekday()))
	regs[4] = toBCD(uint8(now.Day()))
	regs[5] = toBCD(uint8(now.Month()))
	regs[6] = toBCD(uint8(now.Year() % 100))
}

func toBCD(v uint8) uint8 {
	return v/10<<4 | v%10
}

func fromBCD(v uint8) uint8 {
	return v>>4*10 + v&0x0F
}
